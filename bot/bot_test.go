package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestApplicationOwnerID(t *testing.T) {
	tests := []struct {
		name     string
		app      *discordgo.Application
		expected string
	}{
		{"nil application", nil, ""},
		{"application owner", &discordgo.Application{Owner: &discordgo.User{ID: "1"}}, "1"},
		{"team owner wins", &discordgo.Application{Owner: &discordgo.User{ID: "1"}, Team: &discordgo.Team{OwnerID: "2"}}, "2"},
		{"team without owner", &discordgo.Application{Owner: &discordgo.User{ID: "1"}, Team: &discordgo.Team{}}, "1"},
		{"no owner", &discordgo.Application{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplicationOwnerID(tt.app))
		})
	}
}
