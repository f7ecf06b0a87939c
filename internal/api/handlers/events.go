package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gatherkit/server/internal/api/pagination"
	"github.com/gatherkit/server/internal/api/problem"
	"github.com/gatherkit/server/internal/domain/events"
	"github.com/gatherkit/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	MaxCapacity   int       `json:"max_capacity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	AttendeeCount int       `json:"attendee_count"`
}

type attendeeResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type paginatedEventsResponse struct {
	Events     []eventResponse `json:"events"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

type paginatedAttendeesResponse struct {
	Attendees  []attendeeResponse `json:"attendees"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}

// Create handles POST /event/create_events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.CreateEventInput
	if err := decodeStrict(r.Body, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Service.CreateEvent(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

// ListUpcoming handles GET /event/events.
func (h *EventsHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.ParsePage(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	timezone := strings.TrimSpace(r.URL.Query().Get("timezone"))

	list, err := h.Service.ListUpcoming(r.Context(), timezone, page.Offset(), page.PerPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]eventResponse, 0, len(list.Events))
	for _, event := range list.Events {
		items = append(items, toEventResponse(event))
	}
	writeJSON(w, http.StatusOK, paginatedEventsResponse{
		Events:     items,
		Total:      list.Total,
		Page:       page.Number,
		PerPage:    page.PerPage,
		TotalPages: page.Pages(list.Total),
	})
}

// Register handles POST /event/{event_id}/register_attendee.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventIDParam(w, r)
	if !ok {
		return
	}

	var input events.RegisterAttendeeInput
	if err := decodeStrict(r.Body, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	attendee, err := h.Service.Register(r.Context(), eventID, input)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		h.writeError(w, r, err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusCreated, toAttendeeResponse(*attendee))
}

// ListAttendees handles GET /event/{event_id}/attendees.
func (h *EventsHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventIDParam(w, r)
	if !ok {
		return
	}

	page, err := pagination.ParsePage(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	list, err := h.Service.ListAttendees(r.Context(), eventID, page.Offset(), page.PerPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]attendeeResponse, 0, len(list.Attendees))
	for _, attendee := range list.Attendees {
		items = append(items, toAttendeeResponse(attendee))
	}
	writeJSON(w, http.StatusOK, paginatedAttendeesResponse{
		Attendees:  items,
		Total:      list.Total,
		Page:       page.Number,
		PerPage:    page.PerPage,
		TotalPages: page.Pages(list.Total),
	})
}

func (h *EventsHandler) eventIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("event_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request",
			events.ValidationError{Field: "event_id", Message: "must be a positive integer"}, h.Env)
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto problem responses: unknown events are
// 404, duplicate emails 409, every other invariant failure 400, and
// anything unexpected 500.
func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr events.ValidationError
	switch {
	case errors.As(err, &validationErr):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
	case errors.Is(err, events.ErrEventNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrDuplicateEmail):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Email already registered for this event", err, h.Env)
	case errors.Is(err, events.ErrEventStarted):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Cannot register for past events", err, h.Env)
	case errors.Is(err, events.ErrCapacityFull):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Event has reached maximum capacity", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		return "not_found"
	case errors.Is(err, events.ErrEventStarted):
		return "event_started"
	case errors.Is(err, events.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, events.ErrCapacityFull):
		return "capacity_full"
	default:
		return "error"
	}
}

func toEventResponse(event events.Event) eventResponse {
	return eventResponse{
		ID:            event.ID,
		Name:          event.Name,
		Location:      event.Location,
		StartTime:     event.StartTime,
		EndTime:       event.EndTime,
		MaxCapacity:   event.MaxCapacity,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
		AttendeeCount: event.AttendeeCount,
	}
}

func toAttendeeResponse(attendee events.Attendee) attendeeResponse {
	return attendeeResponse{
		ID:           attendee.ID,
		Name:         attendee.Name,
		Email:        attendee.Email,
		RegisteredAt: attendee.RegisteredAt,
	}
}

// decodeStrict rejects bodies with unknown fields so typos surface as
// errors instead of silently dropped input.
func decodeStrict(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
