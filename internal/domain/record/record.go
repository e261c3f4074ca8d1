// Package record describes the read-only view of the school's system of
// record: groups, attendance, billing and enrollments.
package record

import (
	"database/sql"
	"time"

	"school_reminder_bot/internal/domain/calendar"
)

// Group is a class group. Name embeds the weekly schedule, e.g. "B1 tue/thu 18:30".
type Group struct {
	ID        int64
	Name      string
	SiteName  string
	TeacherID sql.NullInt64
	// ChatID is the recipient-routing identity for the group (a Telegram group
	// chat). When unset, reminders go to the teacher directly.
	ChatID sql.NullInt64
}

// Payment is one recorded tuition payment.
type Payment struct {
	PaidOn    calendar.Day
	AmountMin int64 // minor currency units
}

// BillingAccount is a student's billing descriptor and payment history.
type BillingAccount struct {
	StudentID         int64
	StudentName       string
	BillingDescriptor string // free text holding the billing day of month
	Payments          []Payment
}

// PaidWithin reports whether any positive payment falls in [from, to].
func (a BillingAccount) PaidWithin(from, to calendar.Day) bool {
	for _, p := range a.Payments {
		if p.AmountMin <= 0 {
			continue
		}
		if !p.PaidOn.Before(from) && !p.PaidOn.After(to) {
			return true
		}
	}
	return false
}

// Enrollment is an enrollment request that staff still have to process.
type Enrollment struct {
	ID          int64
	StudentID   int64
	StudentName string
	SiteName    string
	SubmittedAt time.Time
}
