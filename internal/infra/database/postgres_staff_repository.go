package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt" // For error wrapping

	"school_reminder_bot/internal/domain/staff"

	"github.com/lib/pq"
)

// Custom errors
var ErrStaffNotFound = fmt.Errorf("staff member not found")

// PostgresStaffRepository is a read-only staff.Directory over the staff table.
type PostgresStaffRepository struct {
	db *sql.DB
}

func NewPostgresStaffRepository(db *sql.DB) *PostgresStaffRepository {
	return &PostgresStaffRepository{db: db}
}

const staffColumns = `id, telegram_id, first_name, last_name, role, is_active, created_at, updated_at`

func (r *PostgresStaffRepository) GetByID(ctx context.Context, id int64) (*staff.Member, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("error getting staff member by ID: %w", err)
	}
	return m, nil
}

// ListActiveByRole returns active members holding any of roles, ordered by id.
func (r *PostgresStaffRepository) ListActiveByRole(ctx context.Context, roles ...staff.Role) ([]*staff.Member, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	query := `SELECT ` + staffColumns + `
               FROM staff
               WHERE is_active = TRUE AND role = ANY($1)
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("error listing active staff by role: %w", err)
	}
	defer rows.Close()

	var members []*staff.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning staff row: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff rows: %w", err)
	}
	return members, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*staff.Member, error) {
	m := &staff.Member{}
	var telegramID sql.NullInt64
	var role string
	if err := row.Scan(&m.ID, &telegramID, &m.FirstName, &m.LastName, &role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.TelegramID = telegramID.Int64 // zero when the member never linked Telegram
	m.Role = staff.Role(role)
	return m, nil
}

var _ staff.Directory = (*PostgresStaffRepository)(nil)
