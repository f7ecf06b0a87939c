package events

import (
	"context"
	"time"
)

type EventCreateParams struct {
	Name        string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	MaxCapacity int
}

type AttendeeCreateParams struct {
	EventID int64
	Name    string
	Email   string
}

// Repository is the persistence boundary for events and attendees.
// WithTx runs fn against a transaction-bound repository; every read and
// write inside fn sees the same snapshot and commits or rolls back as one.
type Repository interface {
	CreateEvent(ctx context.Context, params EventCreateParams) (*Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	// GetEventForUpdate locks the event row for the remainder of the
	// enclosing transaction, serializing concurrent registrations.
	GetEventForUpdate(ctx context.Context, id int64) (*Event, error)
	// ListUpcoming returns events with start_time strictly after the given
	// instant, ordered by start_time ascending, plus the filtered total.
	ListUpcoming(ctx context.Context, after time.Time, offset, limit int) ([]Event, int, error)

	CreateAttendee(ctx context.Context, params AttendeeCreateParams) (*Attendee, error)
	FindAttendee(ctx context.Context, eventID int64, email string) (*Attendee, error)
	CountAttendees(ctx context.Context, eventID int64) (int, error)
	// ListAttendees returns one page ordered by registered_at ascending,
	// plus the event's total attendee count.
	ListAttendees(ctx context.Context, eventID int64, offset, limit int) ([]Attendee, int, error)

	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
