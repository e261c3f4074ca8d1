package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"school_reminder_bot/internal/domain/attendance"
	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/staff"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestLogger(t *testing.T) (*logrus.Entry, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func hasLogEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

type fakeStore struct {
	mu sync.Mutex

	groups      []record.Group
	groupsErr   error
	marked      map[int64]bool
	markedErr   map[int64]error
	block       chan struct{} // HasAttendance waits on it when set
	histories   []attendance.StudentHistory
	historyErr  error
	accounts    []record.BillingAccount
	accountsErr error
	enrollments []record.Enrollment

	attendanceCalls []int64
}

func (f *fakeStore) ListActiveGroups(context.Context) ([]record.Group, error) {
	return f.groups, f.groupsErr
}

func (f *fakeStore) HasAttendance(ctx context.Context, groupID int64, _ calendar.Day) (bool, error) {
	f.mu.Lock()
	f.attendanceCalls = append(f.attendanceCalls, groupID)
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if err := f.markedErr[groupID]; err != nil {
		return false, err
	}
	return f.marked[groupID], nil
}

func (f *fakeStore) ListAttendanceHistories(context.Context) ([]attendance.StudentHistory, error) {
	return f.histories, f.historyErr
}

func (f *fakeStore) ListBillingAccounts(context.Context) ([]record.BillingAccount, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeStore) ListUnprocessedEnrollments(context.Context) ([]record.Enrollment, error) {
	return f.enrollments, nil
}

func (f *fakeStore) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.attendanceCalls...)
}

type fakeDirectory struct {
	members []*staff.Member
	err     error
}

func (f *fakeDirectory) GetByID(_ context.Context, id int64) (*staff.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, errors.New("staff member not found")
}

func (f *fakeDirectory) ListActiveByRole(_ context.Context, roles ...staff.Role) ([]*staff.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*staff.Member
	for _, m := range f.members {
		if !m.IsActive {
			continue
		}
		for _, r := range roles {
			if m.Role == r {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	intents []notification.Intent
	errFor  map[notification.ObligationKey]error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, intent notification.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[intent.Key]; err != nil {
		return err
	}
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakeDispatcher) sent() []notification.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification.Intent(nil), f.intents...)
}

type staticEvaluator struct {
	stream     notification.Stream
	candidates []Candidate
	err        error
}

func (e *staticEvaluator) Stream() notification.Stream { return e.stream }

func (e *staticEvaluator) Candidates(context.Context, time.Time) ([]Candidate, error) {
	return e.candidates, e.err
}
