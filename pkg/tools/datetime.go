package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/tools"
)

// Datetime answers date and time questions from the wall clock. The clock is
// injectable so tests can pin it.
type Datetime struct {
	now func() time.Time
}

var _ tools.Tool = (*Datetime)(nil)

type DatetimeOption func(*Datetime)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) DatetimeOption {
	return func(d *Datetime) {
		d.now = now
	}
}

// NewDatetime creates a datetime tool reading the system clock.
func NewDatetime(opts ...DatetimeOption) *Datetime {
	d := &Datetime{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the name of the tool.
func (d *Datetime) Name() string {
	return "datetime"
}

// Description returns the description of the tool.
func (d *Datetime) Description() string {
	return "Answer date and time related questions. Returns the current date, " +
		"time, day of the week, ISO week number and Unix timestamp. " +
		"Input is ignored."
}

// Call reports the current date and time in a form the composing model can
// pick the requested fact from.
func (d *Datetime) Call(_ context.Context, _ string) (string, error) {
	now := d.now()
	_, week := now.ISOWeek()
	return fmt.Sprintf(
		"Current date and time: %s. Day of the week: %s. ISO week: %d. Day of the year: %d. Unix timestamp: %d.",
		now.Format("Monday, January 2, 2006 15:04:05 MST"),
		now.Weekday(),
		week,
		now.YearDay(),
		now.Unix(),
	), nil
}
