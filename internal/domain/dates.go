package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	PeriodLayout = "2006-01"
)

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, InvalidInput("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// DateRange is a closed interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return InvalidInput("start and end dates are required")
	}
	if DateOnly(r.End).Before(DateOnly(r.Start)) {
		return InvalidInput("end date %s is before start date %s",
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

// Overlaps treats both ranges as inclusive of their end dates, so a rental
// ending on the 10th blocks one starting on the 10th.
func (r DateRange) Overlaps(o DateRange) bool {
	return !DateOnly(r.Start).After(DateOnly(o.End)) && !DateOnly(o.Start).After(DateOnly(r.End))
}

// Period identifies a calendar month, e.g. "2025-03".
type Period string

func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format(PeriodLayout))
}

func ParsePeriod(s string) (Period, error) {
	if _, err := time.Parse(PeriodLayout, s); err != nil {
		return "", InvalidInput("invalid period %q, expected YYYY-MM", s)
	}
	return Period(s), nil
}

// Start returns the first day of the period.
func (p Period) Start() time.Time {
	t, _ := time.Parse(PeriodLayout, string(p))
	return t
}

// Previous returns the calendar month before p.
func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

func (p Period) String() string { return string(p) }

// MonthsBetween counts whole calendar months from a to b, ignoring days.
func MonthsBetween(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am)
}

