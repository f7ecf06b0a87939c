package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gatherkit/server/internal/domain/events"
)

const attendeeColumns = `id, event_id, name, email, registered_at`

func (r *Repository) CreateAttendee(ctx context.Context, params events.AttendeeCreateParams) (*events.Attendee, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO attendees (event_id, name, email)
VALUES ($1, $2, $3)
RETURNING `+attendeeColumns,
		params.EventID,
		params.Name,
		params.Email,
	)

	attendee, err := scanAttendee(row)
	if err != nil {
		// The unique constraint on (email, event_id) backs the service's
		// duplicate check under concurrent registrations.
		if isUniqueViolation(err) {
			return nil, events.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	return attendee, nil
}

func (r *Repository) FindAttendee(ctx context.Context, eventID int64, email string) (*events.Attendee, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE event_id = $1 AND email = $2`,
		eventID, email,
	)

	attendee, err := scanAttendee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendee: %w", err)
	}
	return attendee, nil
}

func (r *Repository) CountAttendees(ctx context.Context, eventID int64) (int, error) {
	var count int
	if err := r.queryer().QueryRow(ctx,
		`SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return count, nil
}

// ListAttendees fetches one page plus the event's total in a single
// statement so the two cannot disagree under concurrent registrations.
func (r *Repository) ListAttendees(ctx context.Context, eventID int64, offset, limit int) ([]events.Attendee, int, error) {
	queryer := r.queryer()

	rows, err := queryer.Query(ctx, `
SELECT `+attendeeColumns+`, COUNT(*) OVER () AS total
  FROM attendees
 WHERE event_id = $1
 ORDER BY registered_at ASC, id ASC
OFFSET $2 LIMIT $3
`, eventID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var total int
	items := make([]events.Attendee, 0, limit)
	for rows.Next() {
		var attendee events.Attendee
		if err := rows.Scan(
			&attendee.ID,
			&attendee.EventID,
			&attendee.Name,
			&attendee.Email,
			&attendee.RegisteredAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan attendee: %w", err)
		}
		items = append(items, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate attendees: %w", err)
	}

	// An empty page carries no window total (offset past the end).
	if len(items) == 0 {
		if err := queryer.QueryRow(ctx,
			`SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count attendees: %w", err)
		}
	}
	return items, total, nil
}

func scanAttendee(row pgx.Row) (*events.Attendee, error) {
	var attendee events.Attendee
	err := row.Scan(
		&attendee.ID,
		&attendee.EventID,
		&attendee.Name,
		&attendee.Email,
		&attendee.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}
