package staff

import (
	"context"
)

// Directory is the read-only view of staff records. Editing staff happens in
// the system of record, not here.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	ListActiveByRole(ctx context.Context, roles ...Role) ([]*Member, error)
}
