// internal/domain/notification/ledger.go
package notification

import (
	"errors"

	"school_reminder_bot/internal/domain/calendar"
)

// ErrLedgerCorrupt means the ledger state for a stream cannot be trusted.
// Callers Reset the stream and continue with an empty partition, which may
// repeat one reminder but never silences a stream for good.
var ErrLedgerCorrupt = errors.New("dedup ledger corrupt")

// Ledger records which obligations were already notified on a calendar day.
type Ledger interface {
	AlreadyFired(stream Stream, key ObligationKey, day calendar.Day) (bool, error)
	// RecordFired is idempotent.
	RecordFired(stream Stream, key ObligationKey, day calendar.Day) error
	// Prune drops entries older than olderThan across all streams and never
	// drops entries of the current day. It returns the number removed.
	Prune(olderThan calendar.Day) int
	// MaybePrune applies the stream's retention policy.
	MaybePrune(stream Stream) int
	Reset(stream Stream)
	Len(stream Stream) int
}
