// internal/infra/database/postgres_record_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/attendance"
	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/record"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// attendanceDateLayouts are the spellings of a class date found in the
// hand-edited attendance table.
var attendanceDateLayouts = []string{"2006-01-02", "02.01.2006", "02.01.06", "2.1.2006"}

// PostgresRecordRepository reads the school's system of record. It never writes.
type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

// --- Groups & attendance ---

func (r *PostgresRecordRepository) ListActiveGroups(ctx context.Context) ([]record.Group, error) {
	query := `SELECT id, name, COALESCE(site_name, ''), teacher_id, chat_id
               FROM groups
               WHERE is_active = TRUE
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing active groups: %w", err)
	}
	defer rows.Close()

	var groups []record.Group
	for rows.Next() {
		var g record.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.SiteName, &g.TeacherID, &g.ChatID); err != nil {
			return nil, fmt.Errorf("error scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return groups, nil
}

// HasAttendance reports whether any non-empty status is recorded for the
// group on day, whichever date spelling the record uses.
func (r *PostgresRecordRepository) HasAttendance(ctx context.Context, groupID int64, day calendar.Day) (bool, error) {
	spellings := make([]string, len(attendanceDateLayouts))
	for i, layout := range attendanceDateLayouts {
		spellings[i] = day.Format(layout)
	}

	query := `SELECT EXISTS (
                 SELECT 1 FROM attendance
                 WHERE group_id = $1
                   AND TRIM(class_date) = ANY($2)
                   AND TRIM(COALESCE(status, '')) <> ''
               )`
	var marked bool
	if err := r.db.QueryRowContext(ctx, query, groupID, pq.Array(spellings)).Scan(&marked); err != nil {
		return false, fmt.Errorf("error checking attendance for group %d: %w", groupID, err)
	}
	return marked, nil
}

// ListAttendanceHistories returns one history per student per active group,
// ordered by student and then group.
func (r *PostgresRecordRepository) ListAttendanceHistories(ctx context.Context) ([]attendance.StudentHistory, error) {
	query := `SELECT s.id, s.full_name, g.id, g.name, COALESCE(a.class_date, ''), COALESCE(a.status, '')
               FROM attendance a
               JOIN students s ON s.id = a.student_id
               JOIN groups g ON g.id = a.group_id
               WHERE g.is_active = TRUE
               ORDER BY s.id, g.id, a.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance histories: %w", err)
	}
	defer rows.Close()

	var histories []attendance.StudentHistory
	for rows.Next() {
		var (
			h       attendance.StudentHistory
			rawDate string
			status  string
		)
		if err := rows.Scan(&h.StudentID, &h.StudentName, &h.GroupID, &h.GroupName, &rawDate, &status); err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		mark := attendance.Mark{RawDate: rawDate, Status: attendance.ParseStatus(status)}

		if n := len(histories); n > 0 && histories[n-1].StudentID == h.StudentID && histories[n-1].GroupID == h.GroupID {
			histories[n-1].Marks = append(histories[n-1].Marks, mark)
			continue
		}
		h.Marks = []attendance.Mark{mark}
		histories = append(histories, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}
	return histories, nil
}

// --- Billing ---

// ListBillingAccounts returns active students with their billing descriptor
// and full payment history.
func (r *PostgresRecordRepository) ListBillingAccounts(ctx context.Context) ([]record.BillingAccount, error) {
	query := `SELECT id, full_name, COALESCE(billing_descriptor, '')
               FROM students
               WHERE is_active = TRUE
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing billing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []record.BillingAccount
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		var acc record.BillingAccount
		if err := rows.Scan(&acc.StudentID, &acc.StudentName, &acc.BillingDescriptor); err != nil {
			return nil, fmt.Errorf("error scanning billing account row: %w", err)
		}
		index[acc.StudentID] = len(accounts)
		ids = append(ids, acc.StudentID)
		accounts = append(accounts, acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating billing account rows: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}

	if err := r.attachPayments(ctx, ids, accounts, index); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresRecordRepository) attachPayments(ctx context.Context, ids []int64, accounts []record.BillingAccount, index map[int64]int) error {
	query := `SELECT student_id, paid_on, amount_minor
               FROM payments
               WHERE student_id = ANY($1)
               ORDER BY student_id, paid_on`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error listing payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			studentID int64
			paidOn    time.Time
			amount    int64
		)
		if err := rows.Scan(&studentID, &paidOn, &amount); err != nil {
			return fmt.Errorf("error scanning payment row: %w", err)
		}
		i, ok := index[studentID]
		if !ok {
			continue
		}
		accounts[i].Payments = append(accounts[i].Payments, record.Payment{
			PaidOn:    calendar.DayOf(paidOn),
			AmountMin: amount,
		})
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating payment rows: %w", err)
	}
	return nil
}

// --- Enrollments ---

func (r *PostgresRecordRepository) ListUnprocessedEnrollments(ctx context.Context) ([]record.Enrollment, error) {
	query := `SELECT e.id, e.student_id, s.full_name, COALESCE(e.site_name, ''), e.submitted_at
               FROM enrollments e
               JOIN students s ON s.id = e.student_id
               WHERE e.processed_at IS NULL
               ORDER BY e.submitted_at, e.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing unprocessed enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []record.Enrollment
	for rows.Next() {
		var e record.Enrollment
		if err := rows.Scan(&e.ID, &e.StudentID, &e.StudentName, &e.SiteName, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

var _ record.Store = (*PostgresRecordRepository)(nil)
