// Package billing projects the next tuition due date from a monthly billing day.
package billing

import (
	"regexp"
	"strconv"
	"time"

	"school_reminder_bot/internal/domain/calendar"
)

const (
	// DefaultBillingDay is used when a descriptor carries no number.
	DefaultBillingDay = 1
	// MaxDaysUntilDue is the furthest due date that is reported.
	MaxDaysUntilDue = 3
	// clampedDay replaces a billing day that does not exist in a month.
	clampedDay = 28
)

// Billing days are never negative; a hyphen before the number is a separator.
var reInteger = regexp.MustCompile(`\d+`)

// Projection describes an upcoming due date within the reminder horizon.
type Projection struct {
	DueDate      calendar.Day
	DaysUntilDue int
	// WindowStart..WindowEnd is the billing period the upcoming payment covers:
	// from the day after the previous occurrence up to the due date.
	WindowStart calendar.Day
	WindowEnd   calendar.Day
}

// Covers reports whether day falls inside the billing window.
func (p Projection) Covers(day calendar.Day) bool {
	return !day.Before(p.WindowStart) && !day.After(p.WindowEnd)
}

// ParseBillingDay extracts the first integer from a free-text descriptor
// ("pays on the 15th", "15", "до 15 числа"). Without one it falls back to
// DefaultBillingDay and reports defaulted=true.
func ParseBillingDay(descriptor string) (day int, defaulted bool) {
	m := reInteger.FindString(descriptor)
	if m == "" {
		return DefaultBillingDay, true
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return DefaultBillingDay, true
	}
	return n, false
}

// Project returns the projection for billingDay seen from today. ok is false
// when billingDay is not positive or the due date is more than
// MaxDaysUntilDue days away.
func Project(billingDay int, today calendar.Day) (p Projection, ok bool) {
	if billingDay <= 0 {
		return Projection{}, false
	}

	due := occurrence(billingDay, today.Year, today.Month)
	if due.Before(today) {
		next := calendar.Date(today.Year, today.Month+1, 1)
		due = occurrence(billingDay, next.Year, next.Month)
	}

	days := due.Sub(today)
	if days < 0 || days > MaxDaysUntilDue {
		return Projection{}, false
	}

	prevMonth := calendar.Date(due.Year, due.Month-1, 1)
	previous := occurrence(billingDay, prevMonth.Year, prevMonth.Month)

	return Projection{
		DueDate:      due,
		DaysUntilDue: days,
		WindowStart:  previous.AddDays(1),
		WindowEnd:    due,
	}, true
}

// occurrence is the billing date in the given month. A day the month does not
// have is clamped to the 28th, not to the month's last day.
func occurrence(billingDay, year int, month time.Month) calendar.Day {
	first := calendar.Date(year, month, 1)
	if billingDay > first.DaysInMonth() {
		return calendar.Date(year, month, clampedDay)
	}
	return calendar.Date(year, month, billingDay)
}
