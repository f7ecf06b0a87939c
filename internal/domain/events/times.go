package events

import (
	"time"
)

// Date-only values default to working hours: events start at 09:00 and
// end at 18:00 in the default zone.
const (
	defaultStartHour = 9
	defaultEndHour   = 18
)

const (
	layoutDateOnly      = "2006-01-02"
	layoutNaiveDateTime = "2006-01-02T15:04:05"
	layoutNaiveMinutes  = "2006-01-02T15:04"
)

// ParseStartTime normalizes a raw start_time value into a timezone-aware
// timestamp. Accepted forms: "YYYY-MM-DD" (defaults to 09:00 in loc),
// a naive "YYYY-MM-DDTHH:MM[:SS]" datetime (localized to loc), or a full
// RFC3339 timestamp.
func ParseStartTime(raw string, loc *time.Location) (time.Time, error) {
	return parseEventTime(raw, "start_time", defaultStartHour, loc)
}

// ParseEndTime normalizes a raw end_time value; date-only values default
// to 18:00 in loc.
func ParseEndTime(raw string, loc *time.Location) (time.Time, error) {
	return parseEventTime(raw, "end_time", defaultEndHour, loc)
}

func parseEventTime(raw string, field string, defaultHour int, loc *time.Location) (time.Time, error) {
	if len(raw) == len(layoutDateOnly) {
		parsed, err := time.ParseInLocation(layoutDateOnly, raw, loc)
		if err != nil {
			return time.Time{}, invalidTime(field)
		}
		// Pin the wall-clock hour directly. Adding hours from midnight
		// drifts when a DST transition falls between 00:00 and the
		// default hour.
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), defaultHour, 0, 0, 0, loc), nil
	}

	// A zoned timestamp carries its own offset and is taken as-is.
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}

	for _, layout := range []string{layoutNaiveDateTime, layoutNaiveMinutes} {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, invalidTime(field)
}

func invalidTime(field string) error {
	return ValidationError{
		Field:   field,
		Message: "must be a valid date/datetime (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)",
	}
}
