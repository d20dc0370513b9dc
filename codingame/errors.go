package codingame

import (
	"fmt"
)

// FormatError reports a handle that cannot be valid, without calling the API
type FormatError struct {
	Kind    string // "CodinGamer" or "Clash of Code"
	Handle  string
	Pattern string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s handle %q isn't in the good format (regex: %s).", e.Kind, e.Handle, e.Pattern)
}

// NotFoundError reports a well-formed handle the API does not know
type NotFoundError struct {
	Kind   string
	Handle string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No %s with handle %q", e.Kind, e.Handle)
}

// APIError is an unexpected response from the API
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("codingame %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}
