package events

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound indicates an unknown event id.
	ErrEventNotFound = errors.New("event not found")

	// ErrEventStarted indicates a registration attempt against an event
	// whose start time has already passed.
	ErrEventStarted = errors.New("cannot register for past events")

	// ErrDuplicateEmail indicates the email is already registered for
	// the event.
	ErrDuplicateEmail = errors.New("email already registered for this event")

	// ErrCapacityFull indicates the event has reached max_capacity.
	ErrCapacityFull = errors.New("event has reached maximum capacity")
)

// ValidationError reports malformed or out-of-range input for a field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
