package events

import "time"

// Event is a scheduled happening with a location, a time window, and a
// fixed attendee capacity.
type Event struct {
	ID            int64
	Name          string
	Location      string
	StartTime     time.Time
	EndTime       time.Time
	MaxCapacity   int
	AttendeeCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attendee is a person registered for an event, identified per-event
// by email.
type Attendee struct {
	ID           int64
	EventID      int64
	Name         string
	Email        string
	RegisteredAt time.Time
}

// CreateEventInput enumerates the fields accepted when creating an event.
// StartTime and EndTime are raw strings; see ParseStartTime/ParseEndTime
// for the accepted formats.
type CreateEventInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Location    string `json:"location" validate:"required,max=500"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0,lte=10000"`
}

// RegisterAttendeeInput enumerates the fields accepted when registering
// an attendee.
type RegisterAttendeeInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// EventList is one page of upcoming events plus the unfiltered total.
type EventList struct {
	Events []Event
	Total  int
}

// AttendeeList is one page of an event's attendees plus the total.
type AttendeeList struct {
	Attendees []Attendee
	Total     int
}
