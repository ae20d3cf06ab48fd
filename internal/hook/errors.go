package hook

import "fmt"

// ErrInvalidName is returned when a hook name does not match the required
// colon-delimited lowercase shape.
type ErrInvalidName struct {
	Name string
}

func (e ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid hook name '%s'\nHint: use two or more lowercase segments joined by colons, e.g. 'command:execute'", e.Name)
}

// ErrEmptyRegistration is returned when a registration carries no handlers.
type ErrEmptyRegistration struct {
	Name string
}

func (e ErrEmptyRegistration) Error() string {
	return fmt.Sprintf("hook registration for '%s' has no before, after or around handler", e.Name)
}

// Error wraps a handler failure raised during chain execution. The chain
// stops at the failing handler and the error propagates to the operation
// that triggered the hook.
type Error struct {
	Hook  string
	Phase string
	Owner string
	Err   error
}

func (e *Error) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("hook '%s' %s handler (owner '%s') failed: %v", e.Hook, e.Phase, e.Owner, e.Err)
	}
	return fmt.Sprintf("hook '%s' %s handler failed: %v", e.Hook, e.Phase, e.Err)
}

// Unwrap exposes the handler's underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
