// Package schedule extracts a weekly class schedule from a group label such
// as "English B1 tue/thu 18:30".
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"school_reminder_bot/internal/domain/calendar"
)

// ErrParseFailure is returned when a label carries no usable schedule.
var ErrParseFailure = errors.New("schedule parse failure")

var (
	reDayPair = regexp.MustCompile(`(\p{L}+)\s*/\s*(\p{L}+)`)
	reTime    = regexp.MustCompile(`(?:^|[^\d:])(\d{1,2}:\d{2})(?:[^\d:]|$)`)
)

var dayAbbreviations = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
	"пн":  time.Monday,
	"вт":  time.Tuesday,
	"ср":  time.Wednesday,
	"чт":  time.Thursday,
	"пт":  time.Friday,
	"сб":  time.Saturday,
	"вс":  time.Sunday,
}

// Days is a set of weekdays.
type Days uint8

func (d Days) With(w time.Weekday) Days { return d | 1<<uint(w) }

func (d Days) Has(w time.Weekday) bool { return d&(1<<uint(w)) != 0 }

func (d Days) Len() int {
	n := 0
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			n++
		}
	}
	return n
}

// Weekdays lists the members in Sunday-first order.
func (d Days) Weekdays() []time.Weekday {
	var out []time.Weekday
	for w := time.Sunday; w <= time.Saturday; w++ {
		if d.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// WeeklySchedule is a class that meets on two weekdays at the same time.
type WeeklySchedule struct {
	Days Days
	Time calendar.Clock
}

func (s WeeklySchedule) MeetsOn(day calendar.Day) bool {
	return s.Days.Has(day.Weekday())
}

func (s WeeklySchedule) String() string {
	names := make([]string, 0, 2)
	for _, w := range s.Days.Weekdays() {
		names = append(names, strings.ToLower(w.String()[:3]))
	}
	return fmt.Sprintf("%s %s", strings.Join(names, "/"), s.Time)
}

// Parse finds a "day/day" pair and an "HH:MM" time anywhere in label.
// The first pair whose tokens are both known weekday abbreviations is used.
func Parse(label string) (WeeklySchedule, error) {
	lower := strings.ToLower(label)

	var days Days
	for _, m := range reDayPair.FindAllStringSubmatch(lower, -1) {
		first, ok1 := dayAbbreviations[m[1]]
		second, ok2 := dayAbbreviations[m[2]]
		if !ok1 || !ok2 {
			continue
		}
		if first == second {
			return WeeklySchedule{}, fmt.Errorf("%w: repeated weekday %q in %q", ErrParseFailure, m[1], label)
		}
		days = days.With(first).With(second)
		break
	}
	if days.Len() != 2 {
		return WeeklySchedule{}, fmt.Errorf("%w: no weekday pair in %q", ErrParseFailure, label)
	}

	m := reTime.FindStringSubmatch(lower)
	if m == nil {
		return WeeklySchedule{}, fmt.Errorf("%w: no time in %q", ErrParseFailure, label)
	}
	clock, err := calendar.ParseClock(m[1])
	if err != nil {
		return WeeklySchedule{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	return WeeklySchedule{Days: days, Time: clock}, nil
}
