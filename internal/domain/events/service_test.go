package events

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatherkit/server/internal/clock"
)

var frozenNow = time.Date(2030, 1, 15, 12, 0, 0, 0, time.UTC)

// memRepo is an in-memory Repository for service tests. It enforces the
// same (event_id, email) uniqueness the database constraint does.
type memRepo struct {
	mu             sync.Mutex
	events         map[int64]Event
	attendees      map[int64][]Attendee
	nextEventID    int64
	nextAttendeeID int64
	registerTick   time.Duration
}

func newMemRepo() *memRepo {
	return &memRepo{
		events:    make(map[int64]Event),
		attendees: make(map[int64][]Attendee),
	}
}

func (r *memRepo) CreateEvent(ctx context.Context, params EventCreateParams) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEventID++
	event := Event{
		ID:          r.nextEventID,
		Name:        params.Name,
		Location:    params.Location,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		MaxCapacity: params.MaxCapacity,
		CreatedAt:   frozenNow,
		UpdatedAt:   frozenNow,
	}
	r.events[event.ID] = event
	return &event, nil
}

func (r *memRepo) GetEvent(ctx context.Context, id int64) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	event.AttendeeCount = len(r.attendees[id])
	return &event, nil
}

func (r *memRepo) GetEventForUpdate(ctx context.Context, id int64) (*Event, error) {
	return r.GetEvent(ctx, id)
}

func (r *memRepo) ListUpcoming(ctx context.Context, after time.Time, offset, limit int) ([]Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	upcoming := make([]Event, 0, len(r.events))
	for id, event := range r.events {
		if event.StartTime.After(after) {
			event.AttendeeCount = len(r.attendees[id])
			upcoming = append(upcoming, event)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].StartTime.Equal(upcoming[j].StartTime) {
			return upcoming[i].ID < upcoming[j].ID
		}
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})
	total := len(upcoming)
	if offset >= len(upcoming) {
		return nil, total, nil
	}
	upcoming = upcoming[offset:]
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, total, nil
}

func (r *memRepo) CreateAttendee(ctx context.Context, params AttendeeCreateParams) (*Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.attendees[params.EventID] {
		if existing.Email == params.Email {
			return nil, ErrDuplicateEmail
		}
	}
	r.nextAttendeeID++
	r.registerTick += time.Second
	attendee := Attendee{
		ID:           r.nextAttendeeID,
		EventID:      params.EventID,
		Name:         params.Name,
		Email:        params.Email,
		RegisteredAt: frozenNow.Add(r.registerTick),
	}
	r.attendees[params.EventID] = append(r.attendees[params.EventID], attendee)
	return &attendee, nil
}

func (r *memRepo) FindAttendee(ctx context.Context, eventID int64, email string) (*Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attendee := range r.attendees[eventID] {
		if attendee.Email == email {
			return &attendee, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CountAttendees(ctx context.Context, eventID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attendees[eventID]), nil
}

func (r *memRepo) ListAttendees(ctx context.Context, eventID int64, offset, limit int) ([]Attendee, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.attendees[eventID]
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	page := all[offset:]
	if len(page) > limit {
		page = page[:limit]
	}
	out := make([]Attendee, len(page))
	copy(out, page)
	return out, total, nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return fn(ctx, r)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, clock.NewFixed(frozenNow), testZone)
}

func seedEvent(t *testing.T, repo *memRepo, start time.Time, capacity int) *Event {
	t.Helper()
	event, err := repo.CreateEvent(context.Background(), EventCreateParams{
		Name:        "Tech Meetup",
		Location:    "Bangalore",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		MaxCapacity: capacity,
	})
	require.NoError(t, err)
	return event
}

func TestCreateEvent(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)

	event, err := service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Go Conference",
		Location:    "Mumbai",
		StartTime:   "2030-06-01",
		EndTime:     "2030-06-01T20:00:00",
		MaxCapacity: 100,
	})

	require.NoError(t, err)
	require.Equal(t, int64(1), event.ID)
	require.Equal(t, 0, event.AttendeeCount)
	require.True(t, event.StartTime.Equal(time.Date(2030, 6, 1, 9, 0, 0, 0, testZone)))
	require.True(t, event.EndTime.Equal(time.Date(2030, 6, 1, 20, 0, 0, 0, testZone)))
}

func TestCreateEventStartInPast(t *testing.T) {
	service := newTestService(newMemRepo())

	_, err := service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Old Event",
		Location:    "Delhi",
		StartTime:   "2020-01-01T10:00:00",
		EndTime:     "2020-01-01T12:00:00",
		MaxCapacity: 10,
	})

	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "start_time", validationErr.Field)
}

func TestCreateEventEndNotAfterStart(t *testing.T) {
	service := newTestService(newMemRepo())

	_, err := service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Backwards Event",
		Location:    "Delhi",
		StartTime:   "2030-06-01T12:00:00",
		EndTime:     "2030-06-01T12:00:00",
		MaxCapacity: 10,
	})

	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "end_time", validationErr.Field)
}

func TestCreateEventFieldValidation(t *testing.T) {
	service := newTestService(newMemRepo())

	cases := []struct {
		name  string
		input CreateEventInput
		field string
	}{
		{
			name:  "missing name",
			input: CreateEventInput{Location: "Pune", StartTime: "2030-06-01", EndTime: "2030-06-02", MaxCapacity: 5},
			field: "name",
		},
		{
			name:  "missing location",
			input: CreateEventInput{Name: "Meetup", StartTime: "2030-06-01", EndTime: "2030-06-02", MaxCapacity: 5},
			field: "location",
		},
		{
			name:  "zero capacity",
			input: CreateEventInput{Name: "Meetup", Location: "Pune", StartTime: "2030-06-01", EndTime: "2030-06-02"},
			field: "max_capacity",
		},
		{
			name:  "oversized capacity",
			input: CreateEventInput{Name: "Meetup", Location: "Pune", StartTime: "2030-06-01", EndTime: "2030-06-02", MaxCapacity: 20000},
			field: "max_capacity",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateEvent(context.Background(), tc.input)

			var validationErr ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestRegisterUnknownEvent(t *testing.T) {
	service := newTestService(newMemRepo())

	_, err := service.Register(context.Background(), 42, RegisterAttendeeInput{Name: "Asha", Email: "asha@example.com"})

	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterPastEvent(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	event := seedEvent(t, repo, frozenNow.Add(-time.Hour), 10)

	_, err := service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Asha", Email: "asha@example.com"})

	require.ErrorIs(t, err, ErrEventStarted)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	event := seedEvent(t, repo, frozenNow.Add(time.Hour), 10)

	_, err := service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)

	_, err = service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Asha Again", Email: "asha@example.com"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterCapacity(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	event := seedEvent(t, repo, frozenNow.Add(time.Hour), 2)

	_, err := service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "One", Email: "one@example.com"})
	require.NoError(t, err)
	_, err = service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Two", Email: "two@example.com"})
	require.NoError(t, err)

	_, err = service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Three", Email: "three@example.com"})
	require.ErrorIs(t, err, ErrCapacityFull)
}

func TestRegisterPastEventWinsOverDuplicate(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	upcoming := seedEvent(t, repo, frozenNow.Add(time.Hour), 10)
	_, err := service.Register(context.Background(), upcoming.ID, RegisterAttendeeInput{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)

	// Shift the event into the past; the started check must fire before
	// the duplicate check.
	repo.mu.Lock()
	event := repo.events[upcoming.ID]
	event.StartTime = frozenNow.Add(-time.Hour)
	repo.events[upcoming.ID] = event
	repo.mu.Unlock()

	_, err = service.Register(context.Background(), upcoming.ID, RegisterAttendeeInput{Name: "Asha", Email: "asha@example.com"})
	require.ErrorIs(t, err, ErrEventStarted)
}

func TestRegisterInvalidEmail(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	event := seedEvent(t, repo, frozenNow.Add(time.Hour), 10)

	_, err := service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Asha", Email: "not-an-email"})

	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "email", validationErr.Field)
}

func TestListUpcomingExcludesStartedEvents(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	seedEvent(t, repo, frozenNow.Add(-time.Hour), 10)
	second := seedEvent(t, repo, frozenNow.Add(2*time.Hour), 10)
	first := seedEvent(t, repo, frozenNow.Add(time.Hour), 10)

	list, err := service.ListUpcoming(context.Background(), "UTC", 0, 10)

	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Events, 2)
	require.Equal(t, first.ID, list.Events[0].ID)
	require.Equal(t, second.ID, list.Events[1].ID)
}

func TestListUpcomingZoneIsPresentationOnly(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	seedEvent(t, repo, frozenNow.Add(time.Hour), 10)

	utcList, err := service.ListUpcoming(context.Background(), "UTC", 0, 10)
	require.NoError(t, err)
	defaultList, err := service.ListUpcoming(context.Background(), "", 0, 10)
	require.NoError(t, err)

	require.Equal(t, utcList.Total, defaultList.Total)
}

func TestListUpcomingUnknownTimezone(t *testing.T) {
	service := newTestService(newMemRepo())

	_, err := service.ListUpcoming(context.Background(), "Not/AZone", 0, 10)

	var validationErr ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "timezone", validationErr.Field)
}

func TestListAttendeesUnknownEvent(t *testing.T) {
	service := newTestService(newMemRepo())

	_, err := service.ListAttendees(context.Background(), 99, 0, 10)

	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestListAttendeesOrderedByRegistration(t *testing.T) {
	repo := newMemRepo()
	service := newTestService(repo)
	event := seedEvent(t, repo, frozenNow.Add(time.Hour), 10)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := service.Register(context.Background(), event.ID, RegisterAttendeeInput{Name: "Guest", Email: email})
		require.NoError(t, err)
	}

	list, err := service.ListAttendees(context.Background(), event.ID, 0, 10)

	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	require.Equal(t, "a@example.com", list.Attendees[0].Email)
	require.Equal(t, "c@example.com", list.Attendees[2].Email)
	require.True(t, list.Attendees[0].RegisteredAt.Before(list.Attendees[1].RegisteredAt))
}
