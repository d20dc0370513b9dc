package commands

import (
	"fmt"
	"strings"
	"time"

	"cgbot/bot/common"
)

// MissingArgumentError is raised when a required argument is absent
type MissingArgumentError struct {
	Param string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s is a required argument that is missing.", e.Param)
}

// BadArgumentError is raised when an argument fails to convert
type BadArgumentError struct {
	Param   string
	Value   string
	Message string
}

func (e *BadArgumentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Converting %q failed for parameter %q.", e.Value, e.Param)
}

// MemberNotFoundError is raised when no guild member matches an argument
type MemberNotFoundError struct {
	Argument string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("Member %q not found.", e.Argument)
}

// UserNotFoundError is raised when no user matches an argument
type UserNotFoundError struct {
	Argument string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User %q not found.", e.Argument)
}

// CheckFailureError is raised by custom checks. It is never shown to the user.
type CheckFailureError struct {
	Message string
}

func (e *CheckFailureError) Error() string {
	if e.Message == "" {
		return "The check functions for this command failed."
	}
	return e.Message
}

type NoPrivateMessageError struct{}

func (e *NoPrivateMessageError) Error() string {
	return "This command cannot be used in private messages."
}

type PrivateMessageOnlyError struct{}

func (e *PrivateMessageOnlyError) Error() string {
	return "This command can only be used in private messages."
}

// CommandOnCooldownError is raised when the author hit the command's rate limit
type CommandOnCooldownError struct {
	RetryAfter time.Duration
}

func (e *CommandOnCooldownError) Error() string {
	return fmt.Sprintf("You are on cooldown. Try again in %.2fs", e.RetryAfter.Seconds())
}

// MissingPermissionsError is raised when the author lacks guild permissions
type MissingPermissionsError struct {
	Missing int64
}

func (e *MissingPermissionsError) Error() string {
	return fmt.Sprintf("You are missing %s permission(s) to run this command.", strings.Join(common.PermissionNames(e.Missing), ", "))
}

// BotMissingPermissionsError is raised when the bot lacks guild permissions
type BotMissingPermissionsError struct {
	Missing int64
}

func (e *BotMissingPermissionsError) Error() string {
	return fmt.Sprintf("Bot requires %s permission(s) to run this command.", strings.Join(common.PermissionNames(e.Missing), ", "))
}

// MissingRoleError is raised when the author lacks a required role
type MissingRoleError struct {
	Roles []string
}

func (e *MissingRoleError) Error() string {
	return fmt.Sprintf("You are missing at least one of the required roles: %s", strings.Join(e.Roles, ", "))
}

// PanicError wraps a value recovered from a panicking handler
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command panicked: %v", e.Value)
}

// Unwrap exposes a panicked error value
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
