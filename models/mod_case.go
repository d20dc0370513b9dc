package models

import (
	"time"
)

// ModAction represents the kind of moderation action a case records
type ModAction string

const (
	ModActionWarn  ModAction = "warn"
	ModActionKick  ModAction = "kick"
	ModActionBan   ModAction = "ban"
	ModActionUnban ModAction = "unban"
	ModActionPurge ModAction = "purge"
)

// Valid reports whether the action is one the case store accepts
func (a ModAction) Valid() bool {
	switch a {
	case ModActionWarn, ModActionKick, ModActionBan, ModActionUnban, ModActionPurge:
		return true
	}
	return false
}

// Title is the capitalised action name used in mod log embeds
func (a ModAction) Title() string {
	switch a {
	case ModActionWarn:
		return "Warn"
	case ModActionKick:
		return "Kick"
	case ModActionBan:
		return "Ban"
	case ModActionUnban:
		return "Unban"
	case ModActionPurge:
		return "Purge"
	}
	return string(a)
}

// Verb is the past participle, as in "was kicked"
func (a ModAction) Verb() string {
	switch a {
	case ModActionWarn:
		return "warned"
	case ModActionKick:
		return "kicked"
	case ModActionBan:
		return "banned"
	case ModActionUnban:
		return "unbanned"
	case ModActionPurge:
		return "purged"
	}
	return string(a)
}

// ModCase is a persisted record of one moderation action
type ModCase struct {
	ID            int64          `db:"id"`
	GuildID       int64          `db:"guild_id"`
	CaseNumber    int            `db:"case_number"` // Sequential per guild, starts at 1
	Action        ModAction      `db:"action"`
	TargetID      int64          `db:"target_id"`
	TargetName    string         `db:"target_name"`
	ModeratorID   int64          `db:"moderator_id"`
	ModeratorName string         `db:"moderator_name"`
	Reason        string         `db:"reason"`
	Metadata      map[string]any `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
}

// ActionCount is one row of a per-guild case summary
type ActionCount struct {
	Action ModAction
	Count  int
}
