package clock

import "time"

// Clock supplies the current instant so services can be tested
// against a frozen time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	instant time.Time
}

// NewFixed returns a clock pinned to a single instant.
func NewFixed(t time.Time) Clock {
	return fixedClock{instant: t.UTC()}
}

func (c fixedClock) Now() time.Time {
	return c.instant
}
