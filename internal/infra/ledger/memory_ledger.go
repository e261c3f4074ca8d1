// Package ledger keeps the once-per-day notification record in memory.
// State is lost on restart; the worst case is one repeated reminder per
// obligation on the day of the restart.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"
)

const (
	// MinRetentionDays is the shortest retention window accepted.
	MinRetentionDays = 7
	// DefaultAttendanceThreshold is the partition size above which the
	// attendance stream is pruned.
	DefaultAttendanceThreshold = 1000
)

// Policy decides when MaybePrune actually prunes a stream partition.
type Policy struct {
	// Threshold is the partition size that must be exceeded before pruning.
	// Zero prunes on every call.
	Threshold int
}

// DefaultPolicies prunes the high-cardinality attendance stream by size and
// the other streams unconditionally.
func DefaultPolicies() map[notification.Stream]Policy {
	return map[notification.Stream]Policy{
		notification.StreamAttendanceReminder: {Threshold: DefaultAttendanceThreshold},
		notification.StreamPaymentDue:         {},
		notification.StreamAbsenceStreak:      {},
		notification.StreamUnprocessedBacklog: {},
	}
}

type Options struct {
	RetentionDays int
	Location      *time.Location   // site location; defaults to time.Local
	Clock         func() time.Time // defaults to time.Now
	Policies      map[notification.Stream]Policy
}

type entry struct {
	key notification.ObligationKey
	day calendar.Day
}

// MemoryLedger is safe for concurrent use: reads share a lock, writes are serialized.
type MemoryLedger struct {
	mu            sync.RWMutex
	now           func() time.Time
	loc           *time.Location
	retentionDays int
	policies      map[notification.Stream]Policy
	partitions    map[notification.Stream]map[entry]struct{}
	latest        map[notification.Stream]calendar.Day
}

var _ notification.Ledger = (*MemoryLedger)(nil)

func New(opts Options) *MemoryLedger {
	if opts.RetentionDays < MinRetentionDays {
		opts.RetentionDays = MinRetentionDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Policies == nil {
		opts.Policies = DefaultPolicies()
	}
	return &MemoryLedger{
		now:           opts.Clock,
		loc:           opts.Location,
		retentionDays: opts.RetentionDays,
		policies:      opts.Policies,
		partitions:    make(map[notification.Stream]map[entry]struct{}),
		latest:        make(map[notification.Stream]calendar.Day),
	}
}

func (l *MemoryLedger) today() calendar.Day {
	return calendar.DayOf(l.now().In(l.loc))
}

// AlreadyFired reports ErrLedgerCorrupt when the partition holds entries
// dated after the current day, which happens when the clock moved backwards.
func (l *MemoryLedger) AlreadyFired(stream notification.Stream, key notification.ObligationKey, day calendar.Day) (bool, error) {
	today := l.today()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if latest, ok := l.latest[stream]; ok && latest.After(today) {
		return false, fmt.Errorf("%w: stream %s has entries for %s, today is %s", notification.ErrLedgerCorrupt, stream, latest, today)
	}
	_, fired := l.partitions[stream][entry{key: key, day: day}]
	return fired, nil
}

func (l *MemoryLedger) RecordFired(stream notification.Stream, key notification.ObligationKey, day calendar.Day) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.partitions[stream]
	if !ok {
		p = make(map[entry]struct{})
		l.partitions[stream] = p
	}
	p[entry{key: key, day: day}] = struct{}{}
	if latest, ok := l.latest[stream]; !ok || day.After(latest) {
		l.latest[stream] = day
	}
	return nil
}

func (l *MemoryLedger) Prune(olderThan calendar.Day) int {
	cutoff := l.cutoff(olderThan)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for stream := range l.partitions {
		removed += l.pruneLocked(stream, cutoff)
	}
	return removed
}

func (l *MemoryLedger) MaybePrune(stream notification.Stream) int {
	today := l.today()
	cutoff := l.cutoff(today.AddDays(-l.retentionDays))

	l.mu.Lock()
	defer l.mu.Unlock()

	policy := l.policies[stream]
	if policy.Threshold > 0 && len(l.partitions[stream]) <= policy.Threshold {
		return 0
	}
	return l.pruneLocked(stream, cutoff)
}

// cutoff never goes past the current day, so today's entries survive.
func (l *MemoryLedger) cutoff(olderThan calendar.Day) calendar.Day {
	if today := l.today(); olderThan.After(today) {
		return today
	}
	return olderThan
}

func (l *MemoryLedger) pruneLocked(stream notification.Stream, cutoff calendar.Day) int {
	removed := 0
	for e := range l.partitions[stream] {
		if e.day.Before(cutoff) {
			delete(l.partitions[stream], e)
			removed++
		}
	}
	return removed
}

func (l *MemoryLedger) Reset(stream notification.Stream) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.partitions, stream)
	delete(l.latest, stream)
}

func (l *MemoryLedger) Len(stream notification.Stream) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.partitions[stream])
}
