package record

import (
	"context"

	"school_reminder_bot/internal/domain/attendance"
	"school_reminder_bot/internal/domain/calendar"
)

// Store defines the queries the scheduler runs against the system of record.
// All of them are reads; nothing in this service writes records.
type Store interface {
	ListActiveGroups(ctx context.Context) ([]Group, error)
	// HasAttendance reports whether any attendance value is set for the group on day.
	HasAttendance(ctx context.Context, groupID int64, day calendar.Day) (bool, error)
	// ListAttendanceHistories returns one history per (student, group) pair.
	ListAttendanceHistories(ctx context.Context) ([]attendance.StudentHistory, error)
	ListBillingAccounts(ctx context.Context) ([]BillingAccount, error)
	ListUnprocessedEnrollments(ctx context.Context) ([]Enrollment, error)
}
