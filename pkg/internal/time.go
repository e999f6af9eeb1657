package internal

import "time"

// Clock allows deterministic time for tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock returns a constant time (useful for tests).
type FixedClock struct{ t time.Time }

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{t: t} }
func (f *FixedClock) Now() time.Time        { return f.t }

// DateLayout is the calendar date format stored on items.
const DateLayout = "2006-01-02"

// Today formats the clock's current date as YYYY-MM-DD.
func Today(clock Clock) string {
	return ClockOrReal(clock).Now().Format(DateLayout)
}

// Stamp formats the clock's time for use in directory names.
func Stamp(clock Clock) string {
	return ClockOrReal(clock).Now().Format("20060102-150405")
}

func ISO8601(clock Clock) string {
	return ClockOrReal(clock).Now().UTC().Format(time.RFC3339)
}

// ClockOrReal returns clock, or RealClock when clock is nil.
func ClockOrReal(clock Clock) Clock {
	if clock == nil {
		return RealClock{}
	}
	return clock
}
