package signal

import (
	"fmt"
	"strings"
)

// ErrInvalidName is returned when a signal name does not match the required
// colon-delimited lowercase shape.
type ErrInvalidName struct {
	Name string
}

func (e ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid signal name '%s'\nHint: use two or more lowercase segments joined by colons, e.g. 'core:plugin:loaded'", e.Name)
}

// ErrNilHandler is returned when Subscribe is called without a handler.
type ErrNilHandler struct {
	Name string
}

func (e ErrNilHandler) Error() string {
	return fmt.Sprintf("subscription to '%s' requires a handler", e.Name)
}

// SubscriberError records one subscriber's failure during an emission.
type SubscriberError struct {
	Signal string
	Owner  string
	Err    error
}

func (e *SubscriberError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("subscriber (owner '%s') for '%s' failed: %v", e.Owner, e.Signal, e.Err)
	}
	return fmt.Sprintf("subscriber for '%s' failed: %v", e.Signal, e.Err)
}

// Unwrap exposes the subscriber's underlying error.
func (e *SubscriberError) Unwrap() error {
	return e.Err
}

// DeliveryError aggregates every subscriber failure from a single emission or
// replay. The emission itself completed; remaining subscribers were still
// delivered to.
type DeliveryError struct {
	Signal   string
	Failures []error
}

func (e *DeliveryError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, err := range e.Failures {
		msgs = append(msgs, err.Error())
	}
	// Signal is empty for an unfiltered replay; the wrapped subscriber errors
	// carry each entry's name.
	if e.Signal == "" {
		return fmt.Sprintf("%d subscriber failure(s):\n  %s", len(e.Failures), strings.Join(msgs, "\n  "))
	}
	return fmt.Sprintf("%d subscriber failure(s) delivering '%s':\n  %s", len(e.Failures), e.Signal, strings.Join(msgs, "\n  "))
}

// Unwrap exposes the individual subscriber errors.
func (e *DeliveryError) Unwrap() []error {
	return e.Failures
}
