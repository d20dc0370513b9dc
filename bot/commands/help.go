package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
)

const noDescription = "*No specified command description.*"

// HelpCommand builds the "help [command|category]" command for this router
func (r *Router) HelpCommand() *Command {
	return &Command{
		Name:        "help",
		Usage:       "[command|category]",
		Description: "Shows this message",
		Hidden:      true,
		Handler: func(c *Context) error {
			query := strings.Trim(c.Rest(0), `"`)
			if query == "" {
				_, err := c.SendEmbed(r.botHelpEmbed(c))
				return err
			}

			if cmd := r.FindPath(query); cmd != nil && !cmd.Hidden {
				_, err := c.SendEmbed(r.CommandHelpEmbed(c, cmd))
				return err
			}

			if category, cmds := r.findCategory(c, query); category != "" {
				_, err := c.SendEmbed(CategoryHelpEmbed(r.prefix, category, cmds, c.Author(), r.now()))
				return err
			}

			_, err := c.Send(fmt.Sprintf("Command or category `%s%s` not found. Try again...", r.prefix, query))
			return err
		},
	}
}

// visibleCommands filters out hidden commands and those the author cannot run
func (r *Router) visibleCommands(c *Context, cmds []*Command) []*Command {
	var visible []*Command
	for _, cmd := range cmds {
		if cmd.Hidden || !r.canRun(c, cmd) {
			continue
		}
		visible = append(visible, cmd)
	}
	return visible
}

func (r *Router) findCategory(c *Context, name string) (string, []*Command) {
	var (
		category string
		cmds     []*Command
	)
	for _, cmd := range r.visibleCommands(c, r.commands) {
		if strings.EqualFold(cmd.Category, name) {
			category = cmd.Category
			cmds = append(cmds, cmd)
		}
	}
	return category, cmds
}

func (r *Router) botHelpEmbed(c *Context) *discordgo.MessageEmbed {
	return BotHelpEmbed(r.prefix, r.visibleCommands(c, r.commands), c.Author(), r.now())
}

// CommandHelpEmbed renders help for one command, listing permissions the author lacks
func (r *Router) CommandHelpEmbed(c *Context, cmd *Command) *discordgo.MessageEmbed {
	var missing int64
	if cmd.Permissions != 0 && c.GuildID() != "" {
		missing, _ = c.HasGuildPermissions(cmd.Permissions)
	}
	subs := cmd.Subcommands
	if cmd.IsGroup() {
		subs = r.visibleCommands(c, cmd.Subcommands)
	}
	return CommandHelpEmbed(r.prefix, cmd, subs, missing, c.Author(), r.now())
}

// BotHelpEmbed lists commands and groups per category
func BotHelpEmbed(prefix string, cmds []*Command, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	embed := NewEmbed("Help", fmt.Sprintf(
		"Discord bot for the CodinGame API support server.\n"+
			"Use **`%[1]shelp \"command name\"`** for more info on a command\n"+
			"You can also use **`%[1]shelp \"category name\"`** for more info on a category",
		prefix,
	), caller, now)

	byCategory := make(map[string][]*Command)
	for _, cmd := range cmds {
		category := cmd.Category
		if category == "" {
			category = "No category"
		}
		byCategory[category] = append(byCategory[category], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		var names, groups []string
		for _, cmd := range sortedByName(byCategory[category]) {
			if cmd.IsGroup() {
				groups = append(groups, "`"+prefix+cmd.Name+"`")
			} else {
				names = append(names, "`"+prefix+cmd.Name+"`")
			}
		}

		var lines []string
		if len(names) > 0 {
			lines = append(lines, "**Commands:** "+strings.Join(names, ", "))
		}
		if len(groups) > 0 {
			lines = append(lines, "**Groups:** "+strings.Join(groups, ", "))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "**" + category + "**",
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

// CommandHelpEmbed renders usage, aliases and subcommands of a command
func CommandHelpEmbed(prefix string, cmd *Command, subcommands []*Command, missing int64, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	description := cmd.HelpText()
	if description == "" {
		description = noDescription
	}

	embed := NewEmbed(fmt.Sprintf("Help for command `%s%s`", prefix, cmd.QualifiedName()), description, caller, now)
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Usage",
		Value: "`" + cmd.Signature(prefix) + "`",
	})

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, alias := range cmd.Aliases {
			aliases[i] = "`" + alias + "`"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Aliases",
			Value: strings.Join(aliases, ", "),
		})
	}

	if len(subcommands) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Subcommands",
			Value: commandLines(prefix, sortedByName(subcommands)),
		})
	}

	if missing != 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "You are missing these permissions to run this command:",
			Value: strings.Join(common.PermissionNames(missing), ", "),
		})
	}

	return embed
}

// CategoryHelpEmbed lists the commands of a category with their descriptions
func CategoryHelpEmbed(prefix, category string, cmds []*Command, caller *discordgo.User, now time.Time) *discordgo.MessageEmbed {
	return NewEmbed(category, commandLines(prefix, sortedByName(cmds)), caller, now)
}

func commandLines(prefix string, cmds []*Command) string {
	lines := make([]string, len(cmds))
	for i, cmd := range cmds {
		description := cmd.Description
		if description == "" {
			description = noDescription
		}
		name := "`" + cmd.Signature(prefix) + "`"
		if cmd.IsGroup() {
			name = "Group: " + name
		}
		lines[i] = name + ": " + description
	}
	return strings.Join(lines, "\n")
}

func sortedByName(cmds []*Command) []*Command {
	sorted := make([]*Command, len(cmds))
	copy(sorted, cmds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
