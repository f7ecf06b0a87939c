package events

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gatherkit/server/internal/clock"
)

// Service owns the event lifecycle: creation with temporal validation,
// upcoming listings, and the attendee registration invariants.
type Service struct {
	repo     Repository
	clock    clock.Clock
	zone     *time.Location
	validate *validator.Validate
}

func NewService(repo Repository, clk clock.Clock, zone *time.Location) *Service {
	return &Service{
		repo:     repo,
		clock:    clk,
		zone:     zone,
		validate: validator.New(),
	}
}

func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	start, err := ParseStartTime(input.StartTime, s.zone)
	if err != nil {
		return nil, err
	}
	end, err := ParseEndTime(input.EndTime, s.zone)
	if err != nil {
		return nil, err
	}

	if !start.After(s.clock.Now()) {
		return nil, ValidationError{Field: "start_time", Message: "must be in the future"}
	}
	if !end.After(start) {
		return nil, ValidationError{Field: "end_time", Message: "must be after start_time"}
	}

	return s.repo.CreateEvent(ctx, EventCreateParams{
		Name:        input.Name,
		Location:    input.Location,
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: input.MaxCapacity,
	})
}

// ListUpcoming returns events starting after "now" evaluated in the
// requested zone. The comparison is against an absolute instant, so the
// zone only changes how the reference time is expressed, never which
// events qualify.
func (s *Service) ListUpcoming(ctx context.Context, timezone string, offset, limit int) (*EventList, error) {
	loc := s.zone
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, ValidationError{Field: "timezone", Message: "unknown timezone"}
		}
		loc = parsed
	}

	now := s.clock.Now().In(loc)
	items, total, err := s.repo.ListUpcoming(ctx, now, offset, limit)
	if err != nil {
		return nil, err
	}
	return &EventList{Events: items, Total: total}, nil
}

func (s *Service) GetEvent(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// Register enforces the registration invariants in order inside a single
// transaction: event exists, event not started, email not already
// registered, capacity not exceeded. The first failing check wins. The
// event row is locked for the duration, so two concurrent registrations
// for the last slot cannot both pass the capacity check, and the unique
// constraint on (email, event_id) backs the duplicate check.
func (s *Service) Register(ctx context.Context, eventID int64, input RegisterAttendeeInput) (*Attendee, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var attendee *Attendee
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		now := s.clock.Now().In(s.zone)
		if !event.StartTime.After(now) {
			return ErrEventStarted
		}

		existing, err := tx.FindAttendee(ctx, eventID, input.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateEmail
		}

		count, err := tx.CountAttendees(ctx, eventID)
		if err != nil {
			return err
		}
		if count >= event.MaxCapacity {
			return ErrCapacityFull
		}

		attendee, err = tx.CreateAttendee(ctx, AttendeeCreateParams{
			EventID: eventID,
			Name:    input.Name,
			Email:   input.Email,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return attendee, nil
}

// ListAttendees returns one page of an event's attendees ordered by
// registration time. Unknown events yield ErrEventNotFound.
func (s *Service) ListAttendees(ctx context.Context, eventID int64, offset, limit int) (*AttendeeList, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	items, total, err := s.repo.ListAttendees(ctx, eventID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &AttendeeList{Attendees: items, Total: total}, nil
}

func (s *Service) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return ValidationError{Field: jsonFieldName(first.StructField()), Message: validationMessage(first)}
	}
	return ValidationError{Message: err.Error()}
}

func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + err.Param()
	case "lte":
		return "must be at most " + err.Param()
	case "max":
		return "must be at most " + err.Param() + " characters"
	default:
		return "is invalid"
	}
}

func jsonFieldName(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Location":
		return "location"
	case "StartTime":
		return "start_time"
	case "EndTime":
		return "end_time"
	case "MaxCapacity":
		return "max_capacity"
	case "Email":
		return "email"
	default:
		return structField
	}
}
