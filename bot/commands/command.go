package commands

import (
	"strings"
)

// HandlerFunc runs a command
type HandlerFunc func(ctx *Context) error

// ErrorHandlerFunc is a command-local error handler. Returning nil marks the
// error as handled, anything else continues to the global handler.
type ErrorHandlerFunc func(ctx *Context, err error) error

// Check gates a command. Returning an error stops the invocation.
type Check func(ctx *Context) error

// Command is a prefix command or a group of subcommands
type Command struct {
	Name        string
	Aliases     []string
	Usage       string // "<member> [reason]"
	Description string // one-line summary
	Help        string // long help, falls back to Description
	Category    string
	Hidden      bool
	GuildOnly   bool

	// Permissions the author needs guild-wide
	Permissions int64
	// BotPermissions the bot needs guild-wide
	BotPermissions int64
	Checks         []Check
	Cooldown       *Cooldown

	Handler HandlerFunc
	OnError ErrorHandlerFunc

	Subcommands []*Command

	parent    *Command
	cooldowns *cooldownTracker
}

// QualifiedName is the full name including parent groups, e.g. "codingame codingamer"
func (c *Command) QualifiedName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.QualifiedName() + " " + c.Name
}

// Parent returns the group the command belongs to, or nil
func (c *Command) Parent() *Command {
	return c.parent
}

// IsGroup reports whether the command has subcommands
func (c *Command) IsGroup() bool {
	return len(c.Subcommands) > 0
}

// Names returns the name followed by the aliases
func (c *Command) Names() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Matches reports whether name is the command name or one of its aliases
func (c *Command) Matches(name string) bool {
	for _, n := range c.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Subcommand finds a direct subcommand by name or alias
func (c *Command) Subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Matches(name) {
			return sub
		}
	}
	return nil
}

// Chain returns the command and its parents, root first
func (c *Command) Chain() []*Command {
	if c.parent == nil {
		return []*Command{c}
	}
	return append(c.parent.Chain(), c)
}

// HelpText returns the long help or the description
func (c *Command) HelpText() string {
	if c.Help != "" {
		return c.Help
	}
	return c.Description
}

// Signature renders "prefix + qualified name + usage"
func (c *Command) Signature(prefix string) string {
	sig := prefix + c.QualifiedName()
	if c.Usage != "" {
		sig += " " + c.Usage
	}
	return sig
}

// ParamNames extracts parameter names from Usage, e.g. "<member> [reason]" gives member and reason
func (c *Command) ParamNames() []string {
	var names []string
	for _, field := range strings.Fields(c.Usage) {
		name := strings.Trim(field, "<>[].")
		if i := strings.Index(name, "="); i >= 0 {
			name = name[:i]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// bind wires parents and cooldown trackers for a command tree
func (c *Command) bind(parent *Command) {
	c.parent = parent
	if c.Cooldown != nil && c.cooldowns == nil {
		c.cooldowns = newCooldownTracker(*c.Cooldown)
	}
	for _, sub := range c.Subcommands {
		sub.bind(c)
	}
}
