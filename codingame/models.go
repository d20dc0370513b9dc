package codingame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	staticFileURL = "https://static.codingame.com/servlet/fileservlet?id="
	clashJoinURL  = "https://www.codingame.com/clashofcode/clash/"
	profileURL    = "https://www.codingame.com/profile/"
)

// CodinGamer is a CodinGame user profile
type CodinGamer struct {
	ID           int64  `json:"userId"`
	PublicHandle string `json:"publicHandle"`
	Pseudo       string `json:"pseudo"`
	Level        int    `json:"level"`
	Rank         int    `json:"rank"`
	XP           int64  `json:"xp"`
	CountryID    string `json:"countryId"`
	Category     string `json:"category"`
	Tagline      string `json:"tagline"`
	Biography    string `json:"biography"`
	School       string `json:"school"`
	Company      string `json:"company"`
	AvatarID     int64  `json:"avatar"`
	CoverID      int64  `json:"cover"`
}

// DisplayName is the pseudo, or the public handle for users without one
func (c *CodinGamer) DisplayName() string {
	if c.Pseudo != "" {
		return c.Pseudo
	}
	return c.PublicHandle
}

// AvatarURL returns an empty string when the user has no avatar
func (c *CodinGamer) AvatarURL() string {
	if c.AvatarID == 0 {
		return ""
	}
	return staticFileURL + strconv.FormatInt(c.AvatarID, 10)
}

// ProfileURL links to the public profile page
func (c *CodinGamer) ProfileURL() string {
	return profileURL + c.PublicHandle
}

// CategoryTitle is the category in title case, "PROFESSIONAL" becomes "Professional"
func (c *CodinGamer) CategoryTitle() string {
	if c.Category == "" || strings.EqualFold(c.Category, "UNKNOWN") {
		return ""
	}
	lower := strings.ToLower(c.Category)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// ClashOfCodePlayer is one participant of a clash
type ClashOfCodePlayer struct {
	CodinGamerID int64  `json:"codingamerId"`
	Nickname     string `json:"codingamerNickname"`
	PublicHandle string `json:"codingamerHandle"`
	AvatarID     int64  `json:"codingamerAvatarId"`
	Status       string `json:"status"` // "OWNER" or "STANDARD"
	Rank         int    `json:"rank"`
	Position     int    `json:"position"`
	LanguageID   string `json:"languageId"`
	Score        int    `json:"score"`
	Duration     int64  `json:"duration"` // milliseconds
}

// ClashOfCode is a Clash of Code game
type ClashOfCode struct {
	PublicHandle         string              `json:"publicHandle"`
	PublicClash          bool                `json:"publicClash"`
	MinPlayers           int                 `json:"nbPlayersMin"`
	MaxPlayers           int                 `json:"nbPlayersMax"`
	Mode                 string              `json:"mode"`
	Modes                []string            `json:"modes"`
	ProgrammingLanguages []string            `json:"programmingLanguages"`
	Started              bool                `json:"started"`
	Finished             bool                `json:"finished"`
	Players              []ClashOfCodePlayer `json:"players"`
	CreationTime         APITime             `json:"creationTime"`
	StartTime            APITime             `json:"startTime"`
	EndTime              APITime             `json:"endTime"`
}

// JoinURL is the link players use to join the clash
func (c *ClashOfCode) JoinURL() string {
	return clashJoinURL + c.PublicHandle
}

// APITime accepts the two time encodings the CodinGame API uses:
// "Jan 2, 2006 3:04:05 PM" strings and millisecond epoch numbers.
type APITime struct {
	time.Time
}

const apiTimeLayout = "Jan 2, 2006 3:04:05 PM"

func (t *APITime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		for _, layout := range []string{apiTimeLayout, time.RFC3339} {
			if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("unrecognized time %q", s)
	}

	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("unrecognized time %s: %w", data, err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}
