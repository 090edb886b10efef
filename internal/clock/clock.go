package clock

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates, day granularity.
const DateLayout = "2006-01-02"

// Clock resolves "today" and "this week" in the organization timezone.
// Every component that needs a calendar date goes through one Clock so
// the registration gate, history window and unpaired roster cannot
// disagree near day or week boundaries.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Clock pinned to the named timezone. An empty name means UTC.
func New(timezone string) (*Clock, error) {
	if timezone == "" {
		return &Clock{loc: time.UTC, now: time.Now}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewFixed creates a Clock frozen at the given instant, for tests.
func NewFixed(t time.Time) *Clock {
	return &Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current calendar date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// WeekStart returns midnight of the Monday of the week containing t.
func (c *Clock) WeekStart(t time.Time) time.Time {
	t = t.In(c.loc)
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -daysSinceMonday).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// ThisWeekStart returns midnight of the current week's Monday.
func (c *Clock) ThisWeekStart() time.Time {
	return c.WeekStart(c.Now())
}
