package general

import (
	"sync"
	"testing"
	"time"

	"cgbot/bot/common"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestInviteURL(t *testing.T) {
	assert.Equal(t,
		"https://discord.com/oauth2/authorize?client_id=759474863525330944&permissions=268528728&scope=bot",
		InviteURL("759474863525330944", 268528728),
	)
}

func TestInviteEmbed(t *testing.T) {
	caller := &discordgo.User{ID: "1", Username: "takos", Discriminator: "0"}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	embed := InviteEmbed("759474863525330944", 268528728, 1, caller, now)
	assert.Equal(t, "Invite me to your server", embed.Title)
	assert.Equal(t,
		"[**Invite me here**](https://discord.com/oauth2/authorize?client_id=759474863525330944&permissions=268528728&scope=bot)\nCurrently in 1 server.",
		embed.Description,
	)
	assert.Equal(t, common.ColorPrimary, embed.Color)
	assert.Equal(t, "Called by: takos", embed.Footer.Text)

	embed = InviteEmbed("1", 0, 3, caller, now)
	assert.Contains(t, embed.Description, "Currently in 3 servers.")
}

func TestFeature_Commands(t *testing.T) {
	cmds := NewFeature(268528728).Commands()
	assert.Len(t, cmds, 1)
	assert.Equal(t, "invite", cmds[0].Name)
	assert.Equal(t, "invite", NewFeature(0).ApplicationCommand().Name)
}

func TestGuildCount(t *testing.T) {
	assert.Equal(t, 0, GuildCount(nil))

	state := discordgo.NewState()
	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = state.GuildAdd(&discordgo.Guild{ID: id})
			GuildCount(state)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, GuildCount(state))
}
