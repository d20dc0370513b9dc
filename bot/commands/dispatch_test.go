package commands

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"cgbot/bot/common"
	"cgbot/events"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwnerID     = "7"
	testDMChannelID = "900"
)

type discordCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeDiscord answers REST calls with canned objects and records them
type fakeDiscord struct {
	mu    sync.Mutex
	calls []discordCall
}

func (f *fakeDiscord) RoundTrip(req *http.Request) (*http.Response, error) {
	call := discordCall{
		Method: req.Method,
		Path:   strings.TrimPrefix(req.URL.Path, "/api/v"+discordgo.APIVersion),
	}
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(data, &call.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	response := `{"id": "99", "channel_id": "2"}`
	if call.Path == "/users/@me/channels" {
		response = `{"id": "` + testDMChannelID + `", "type": 1}`
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(response)),
		Request:    req,
	}, nil
}

func (f *fakeDiscord) Calls() []discordCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discordCall(nil), f.calls...)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.events = append(p.events, event)
}

func newFakeSession(t *testing.T) (*discordgo.Session, *fakeDiscord) {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	require.NoError(t, err)

	fake := &fakeDiscord{}
	s.Client = &http.Client{Transport: fake}
	return s, fake
}

func dispatchMessage(t *testing.T, r *Router, author *discordgo.User, content string) *fakeDiscord {
	t.Helper()
	s, fake := newFakeSession(t)
	r.Dispatch(context.Background(), s, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "1",
		ChannelID: "2",
		GuildID:   "3",
		Content:   content,
		Author:    author,
	}})
	return fake
}

func TestRouter_DispatchErrorChain(t *testing.T) {
	author := &discordgo.User{ID: "42", Username: "takos"}
	badAmount := &BadArgumentError{Param: "amount", Message: "amount must be between 1 and 1000."}

	tests := []struct {
		name      string
		ownerID   string
		command   *Command
		wantReply string
		wantOwner bool
		wantType  string
	}{
		{
			name: "command error handler swallows the error",
			command: &Command{
				Name:    "kick",
				Handler: func(c *Context) error { return &MissingArgumentError{Param: "member"} },
				OnError: func(c *Context, err error) error { return nil },
			},
		},
		{
			name: "command error handler passes the error on",
			command: &Command{
				Name:    "purge",
				Handler: func(c *Context) error { return badAmount },
				OnError: func(c *Context, err error) error { return err },
			},
			wantReply: badAmount.Error(),
			wantType:  "BadArgumentError",
		},
		{
			name:    "failed check is silent",
			ownerID: testOwnerID,
			command: &Command{
				Name:    "secret",
				Checks:  []Check{func(c *Context) error { return &CheckFailureError{} }},
				Handler: func(c *Context) error { return nil },
			},
			wantType: "CheckFailureError",
		},
		{
			name:    "unexpected error is reported to the owner",
			ownerID: testOwnerID,
			command: &Command{
				Name:    "docs",
				Handler: func(c *Context) error { return errors.New("connection reset") },
			},
			wantReply: common.GenericErrorMessage,
			wantOwner: true,
			wantType:  "errorString",
		},
		{
			name:    "handler panic becomes a report",
			ownerID: testOwnerID,
			command: &Command{
				Name: "boom",
				Handler: func(c *Context) error {
					var m map[string]int
					m["x"] = 1
					return nil
				},
			},
			wantReply: common.GenericErrorMessage,
			wantOwner: true,
			wantType:  "PanicError",
		},
		{
			name:    "check panic becomes a report",
			ownerID: testOwnerID,
			command: &Command{
				Name:    "checked",
				Checks:  []Check{func(c *Context) error { panic("check exploded") }},
				Handler: func(c *Context) error { return nil },
			},
			wantReply: common.GenericErrorMessage,
			wantOwner: true,
			wantType:  "PanicError",
		},
		{
			name: "no owner configured",
			command: &Command{
				Name:    "docs",
				Handler: func(c *Context) error { return errors.New("connection reset") },
			},
			wantReply: common.GenericErrorMessage,
			wantType:  "errorString",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &recordingPublisher{}
			r := NewRouter("!", WithEventPublisher(publisher), WithOwnerID(tt.ownerID))
			r.Register(tt.command)

			calls := dispatchMessage(t, r, author, "!"+tt.command.Name).Calls()

			expectedCalls := 0
			if tt.wantReply != "" {
				expectedCalls++
				require.NotEmpty(t, calls)
				assert.Equal(t, "/channels/2/messages", calls[0].Path)
				assert.Equal(t, tt.wantReply, calls[0].Body["content"])
			}
			if tt.wantOwner {
				expectedCalls += 2
				require.Len(t, calls, 3)
				assert.Equal(t, "/users/@me/channels", calls[1].Path)
				assert.Equal(t, testOwnerID, calls[1].Body["recipient_id"])
				assert.Equal(t, "/channels/"+testDMChannelID+"/messages", calls[2].Path)

				embeds, ok := calls[2].Body["embeds"].([]any)
				require.True(t, ok)
				require.Len(t, embeds, 1)
				embed := embeds[0].(map[string]any)
				assert.Equal(t, "Unhandled error", embed["title"])
				assert.Contains(t, embed["description"], tt.command.Name)
			}
			assert.Len(t, calls, expectedCalls)

			require.Len(t, publisher.events, 1)
			event := publisher.events[0].(events.CommandInvokedEvent)
			assert.Equal(t, tt.command.Name, event.Command)
			assert.Equal(t, "42", event.UserID)
			assert.Equal(t, tt.wantType, event.ErrorType)
		})
	}
}

func TestRouter_DispatchIgnoresBotsAndOtherMessages(t *testing.T) {
	publisher := &recordingPublisher{}
	r := NewRouter("!", WithEventPublisher(publisher))
	invoked := false
	r.Register(&Command{Name: "github", Handler: func(c *Context) error {
		invoked = true
		return nil
	}})

	bot := &discordgo.User{ID: "5", Username: "otherbot", Bot: true}
	assert.Empty(t, dispatchMessage(t, r, bot, "!github").Calls())
	assert.Empty(t, dispatchMessage(t, r, &discordgo.User{ID: "42"}, "hello there").Calls())
	assert.Empty(t, dispatchMessage(t, r, &discordgo.User{ID: "42"}, "! github").Calls())

	assert.False(t, invoked)
	assert.Empty(t, publisher.events)
}

func TestRouter_InvokeRecoversCheckPanics(t *testing.T) {
	r := NewRouter("!")
	r.Register(&Command{
		Name:    "checked",
		Checks:  []Check{func(c *Context) error { panic("check exploded") }},
		Handler: func(c *Context) error { return nil },
	})

	err := r.Invoke(newTestContext(r, "!checked"))
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "check exploded", panicErr.Value)
}
