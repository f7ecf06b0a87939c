package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gatherkit/server/internal/domain/events"
)

const eventColumns = `id, name, location, start_time, end_time, max_capacity, created_at, updated_at`

func (r *Repository) CreateEvent(ctx context.Context, params events.EventCreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (name, location, start_time, end_time, max_capacity)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+eventColumns,
		params.Name,
		params.Location,
		params.StartTime,
		params.EndTime,
		params.MaxCapacity,
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *Repository) GetEvent(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return getEvent(row)
}

// GetEventForUpdate locks the event row until the enclosing transaction
// ends, serializing concurrent registrations for the same event.
func (r *Repository) GetEventForUpdate(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	return getEvent(row)
}

func getEvent(row pgx.Row) (*events.Event, error) {
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListUpcoming fetches one page plus the filtered total in a single
// statement; the window count rides along on every row so the page and
// the total always come from the same snapshot.
func (r *Repository) ListUpcoming(ctx context.Context, after time.Time, offset, limit int) ([]events.Event, int, error) {
	queryer := r.queryer()

	rows, err := queryer.Query(ctx, `
SELECT e.id, e.name, e.location, e.start_time, e.end_time, e.max_capacity,
       e.created_at, e.updated_at, COUNT(a.id) AS attendee_count,
       COUNT(*) OVER () AS total
  FROM events e
  LEFT JOIN attendees a ON a.event_id = e.id
 WHERE e.start_time > $1
 GROUP BY e.id
 ORDER BY e.start_time ASC, e.id ASC
OFFSET $2 LIMIT $3
`, after, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	var total int
	items := make([]events.Event, 0, limit)
	for rows.Next() {
		var event events.Event
		if err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Location,
			&event.StartTime,
			&event.EndTime,
			&event.MaxCapacity,
			&event.CreatedAt,
			&event.UpdatedAt,
			&event.AttendeeCount,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate events: %w", err)
	}

	// An empty page carries no window total (offset past the end).
	if len(items) == 0 {
		if err := queryer.QueryRow(ctx,
			`SELECT COUNT(*) FROM events WHERE start_time > $1`, after,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count upcoming events: %w", err)
		}
	}
	return items, total, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Location,
		&event.StartTime,
		&event.EndTime,
		&event.MaxCapacity,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
