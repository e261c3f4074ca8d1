// Package calendar holds the site-local date and time-of-day values used for
// trigger matching and once-per-day deduplication.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// dayLayouts are the date formats accepted in attendance and payment records.
var dayLayouts = []string{isoLayout, "02.01.2006", "02.01.06", "2.1.2006"}

// Day is a calendar date without a time or location.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in t's own location.
// Callers convert t into the site location first.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// Date builds a Day, normalizing out-of-range values the way time.Date does.
func Date(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay parses a record date. Surrounding whitespace is ignored.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	return Day{}, fmt.Errorf("unrecognized date %q", s)
}

// Time returns midnight of d in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) utc() time.Time { return d.Time(time.UTC) }

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) Weekday() time.Weekday { return d.utc().Weekday() }

func (d Day) AddDays(n int) Day { return DayOf(d.utc().AddDate(0, 0, n)) }

// Sub returns the number of whole days from o to d.
func (d Day) Sub(o Day) int {
	return int(d.utc().Sub(o.utc()).Hours() / 24)
}

func (d Day) Before(o Day) bool { return d.utc().Before(o.utc()) }

func (d Day) After(o Day) bool { return d.utc().After(o.utc()) }

// DaysInMonth reports how many days the month of d has.
func (d Day) DaysInMonth() int {
	return time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Day) Format(layout string) string { return d.utc().Format(layout) }

func (d Day) String() string { return d.Format(isoLayout) }
