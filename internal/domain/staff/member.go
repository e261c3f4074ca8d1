package staff

import (
	"database/sql"
	"time"
)

// Role is the staff member's function; it decides which reminders they receive.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
)

// Member represents a staff member in the system.
type Member struct {
	ID         int64
	TelegramID int64
	FirstName  string
	LastName   sql.NullString // To handle optional last name
	Role       Role
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (m *Member) FullName() string {
	if m.LastName.Valid && m.LastName.String != "" {
		return m.FirstName + " " + m.LastName.String
	}
	return m.FirstName
}

// TelegramIDs collects the chat IDs of members, skipping unset ones.
func TelegramIDs(members []*Member) []int64 {
	ids := make([]int64, 0, len(members))
	seen := make(map[int64]bool, len(members))
	for _, m := range members {
		if m == nil || m.TelegramID == 0 || seen[m.TelegramID] {
			continue
		}
		seen[m.TelegramID] = true
		ids = append(ids, m.TelegramID)
	}
	return ids
}
