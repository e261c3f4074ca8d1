package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"school_reminder_bot/internal/domain/staff"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staffRowColumns = []string{"id", "telegram_id", "first_name", "last_name", "role", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func Test_PostgresStaffRepository_GetByID(t *testing.T) {
	created := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    *staff.Member
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE id = $1")).
					WithArgs(int64(3)).
					WillReturnRows(sqlmock.NewRows(staffRowColumns).
						AddRow(int64(3), int64(555), "Anna", "Petrova", "teacher", true, created, created))
			},
			want: &staff.Member{
				ID:         3,
				TelegramID: 555,
				FirstName:  "Anna",
				LastName:   sql.NullString{String: "Petrova", Valid: true},
				Role:       staff.RoleTeacher,
				IsActive:   true,
				CreatedAt:  created,
				UpdatedAt:  created,
			},
		},
		{
			name: "telegram not linked",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE id = $1")).
					WithArgs(int64(3)).
					WillReturnRows(sqlmock.NewRows(staffRowColumns).
						AddRow(int64(3), nil, "Anna", nil, "manager", true, created, created))
			},
			want: &staff.Member{
				ID:        3,
				FirstName: "Anna",
				Role:      staff.RoleManager,
				IsActive:  true,
				CreatedAt: created,
				UpdatedAt: created,
			},
		},
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE id = $1")).
					WithArgs(int64(3)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrStaffNotFound,
		},
		{
			name: "query error is wrapped",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE id = $1")).
					WithArgs(int64(3)).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.setup(mock)
			repo := NewPostgresStaffRepository(db)

			got, err := repo.GetByID(context.Background(), 3)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func Test_PostgresStaffRepository_ListActiveByRole(t *testing.T) {
	created := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE AND role = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(staffRowColumns).
			AddRow(int64(2), int64(102), "Boris", nil, "manager", true, created, created).
			AddRow(int64(3), int64(103), "Vera", "Ivanova", "owner", true, created, created))

	repo := NewPostgresStaffRepository(db)
	members, err := repo.ListActiveByRole(context.Background(), staff.RoleManager, staff.RoleOwner)

	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, staff.RoleManager, members[0].Role)
	assert.Equal(t, "Vera Ivanova", members[1].FullName())
	assert.Equal(t, []int64{102, 103}, staff.TelegramIDs(members))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_PostgresStaffRepository_ListActiveByRole_noRoles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresStaffRepository(db)

	members, err := repo.ListActiveByRole(context.Background())

	require.NoError(t, err)
	assert.Empty(t, members)
	assert.NoError(t, mock.ExpectationsWereMet())
}
