package commands

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode"

	"cgbot/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// EventPublisher receives a CommandInvokedEvent after every invocation
type EventPublisher interface {
	Publish(event events.Event)
}

// Invocation is a parsed command message
type Invocation struct {
	Command     *Command
	InvokedWith string // names as typed, e.g. "cg c"
	Prefix      string
	Raw         string // text after the command names
	args        []argument
}

// Args returns the parsed argument values
func (inv *Invocation) Args() []string {
	values := make([]string, len(inv.args))
	for i, arg := range inv.args {
		values[i] = arg.value
	}
	return values
}

// Router parses prefix commands and runs them through checks, handlers and error handling
type Router struct {
	prefix    string
	commands  []*Command
	publisher EventPublisher
	now       func() time.Time

	mu      sync.RWMutex
	ownerID string
}

type RouterOption func(*Router)

// WithEventPublisher makes the router publish a CommandInvokedEvent per invocation
func WithEventPublisher(publisher EventPublisher) RouterOption {
	return func(r *Router) {
		r.publisher = publisher
	}
}

// WithOwnerID sets who receives unhandled error reports
func WithOwnerID(ownerID string) RouterOption {
	return func(r *Router) {
		r.ownerID = ownerID
	}
}

func NewRouter(prefix string, opts ...RouterOption) *Router {
	r := &Router{
		prefix: prefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Prefix() string {
	return r.prefix
}

// SetOwnerID replaces the error report recipient
func (r *Router) SetOwnerID(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ownerID = ownerID
}

func (r *Router) OwnerID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ownerID
}

// Register adds top-level commands
func (r *Router) Register(cmds ...*Command) {
	for _, cmd := range cmds {
		cmd.bind(nil)
		r.commands = append(r.commands, cmd)
		log.WithFields(log.Fields{
			"command":     cmd.Name,
			"subcommands": len(cmd.Subcommands),
		}).Debug("Registered command")
	}
}

// Commands returns the registered top-level commands
func (r *Router) Commands() []*Command {
	return r.commands
}

// Find returns the top-level command matching name or alias
func (r *Router) Find(name string) *Command {
	for _, cmd := range r.commands {
		if cmd.Matches(name) {
			return cmd
		}
	}
	return nil
}

// FindPath resolves "group sub" paths
func (r *Router) FindPath(path string) *Command {
	names := strings.Fields(path)
	if len(names) == 0 {
		return nil
	}
	cmd := r.Find(names[0])
	for _, name := range names[1:] {
		if cmd == nil {
			return nil
		}
		cmd = cmd.Subcommand(name)
	}
	return cmd
}

// Parse matches the prefix and command names. Unknown commands are not an error.
func (r *Router) Parse(content string) (*Invocation, bool) {
	if len(content) < len(r.prefix) || !strings.EqualFold(content[:len(r.prefix)], r.prefix) {
		return nil, false
	}
	raw := content[len(r.prefix):]
	// The command name must follow the prefix directly
	if raw == "" || unicode.IsSpace(rune(raw[0])) {
		return nil, false
	}

	args := splitArgs(raw)
	if len(args) == 0 {
		return nil, false
	}

	cmd := r.Find(args[0].value)
	if cmd == nil {
		return nil, false
	}
	invoked := []string{args[0].value}
	args = args[1:]

	for len(args) > 0 && cmd.IsGroup() {
		sub := cmd.Subcommand(args[0].value)
		if sub == nil {
			break
		}
		cmd = sub
		invoked = append(invoked, args[0].value)
		args = args[1:]
	}

	inv := &Invocation{
		Command:     cmd,
		InvokedWith: strings.Join(invoked, " "),
		Prefix:      r.prefix,
	}
	if len(args) > 0 {
		offset := args[0].start
		inv.Raw = raw[offset:]
		for _, arg := range args {
			inv.args = append(inv.args, argument{value: arg.value, start: arg.start - offset})
		}
	}
	return inv, true
}

// Dispatch handles a message create event
func (r *Router) Dispatch(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	inv, ok := r.Parse(m.Content)
	if !ok {
		return
	}

	cmdCtx := &Context{
		Session:     s,
		Message:     m.Message,
		Command:     inv.Command,
		Prefix:      inv.Prefix,
		InvokedWith: inv.InvokedWith,
		Router:      r,
		ctx:         ctx,
		raw:         inv.Raw,
		args:        inv.args,
	}

	log.WithFields(log.Fields{
		"command":    inv.Command.QualifiedName(),
		"guild_id":   m.GuildID,
		"channel_id": m.ChannelID,
		"user_id":    m.Author.ID,
		"user":       m.Author.String(),
	}).Info("Command invoked")

	err := r.Invoke(cmdCtx)
	if err != nil && inv.Command.OnError != nil {
		err = inv.Command.OnError(cmdCtx, err)
	}
	if err != nil {
		r.HandleCommandError(cmdCtx, err)
	}

	r.publish(cmdCtx, err)
}

// Invoke runs checks, the cooldown and the handler. Panics become *PanicError.
func (r *Router) Invoke(c *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	if err := r.runChecks(c, c.Command); err != nil {
		return err
	}

	if c.Command.cooldowns != nil {
		if retry := c.Command.cooldowns.hit(c.Author().ID, r.now()); retry > 0 {
			return &CommandOnCooldownError{RetryAfter: retry}
		}
	}

	if c.Command.Handler == nil {
		return c.SendHelp()
	}
	return c.Command.Handler(c)
}

// runChecks applies guild-only, permission and custom checks from the root group down
func (r *Router) runChecks(c *Context, cmd *Command) error {
	for _, link := range cmd.Chain() {
		if link.GuildOnly && c.GuildID() == "" {
			return &NoPrivateMessageError{}
		}

		if link.Permissions != 0 {
			missing, err := c.HasGuildPermissions(link.Permissions)
			if err != nil {
				return fmt.Errorf("failed to compute permissions: %w", err)
			}
			if missing != 0 {
				return &MissingPermissionsError{Missing: missing}
			}
		}

		if link.BotPermissions != 0 {
			missing, err := c.BotHasGuildPermissions(link.BotPermissions)
			if err != nil {
				return fmt.Errorf("failed to compute bot permissions: %w", err)
			}
			if missing != 0 {
				return &BotMissingPermissionsError{Missing: missing}
			}
		}

		for _, check := range link.Checks {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// canRun reports whether the checks of cmd pass for the context's author
func (r *Router) canRun(c *Context, cmd *Command) bool {
	return r.runChecks(c, cmd) == nil
}

func (r *Router) publish(c *Context, err error) {
	if r.publisher == nil {
		return
	}
	event := events.CommandInvokedEvent{
		Command: c.Command.QualifiedName(),
		GuildID: c.GuildID(),
		UserID:  c.Author().ID,
	}
	if err != nil {
		event.ErrorType = ErrorType(err)
	}
	r.publisher.Publish(event)
}
