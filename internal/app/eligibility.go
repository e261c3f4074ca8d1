package app

import (
	"context"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultLookupConcurrency = 4

// AttendanceLookup is the part of record.Store the evaluator needs.
type AttendanceLookup interface {
	HasAttendance(ctx context.Context, groupID int64, day calendar.Day) (bool, error)
}

// ScheduledGroup is a group together with its parsed weekly schedule.
type ScheduledGroup struct {
	Group    record.Group
	Schedule schedule.WeeklySchedule
}

// EligibilityEvaluator decides whether a group still needs an attendance reminder today.
type EligibilityEvaluator struct {
	lookup      AttendanceLookup
	timeout     time.Duration
	concurrency int
	logger      *logrus.Entry
}

func NewEligibilityEvaluator(lookup AttendanceLookup, timeout time.Duration, concurrency int, logger *logrus.Entry) *EligibilityEvaluator {
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	return &EligibilityEvaluator{
		lookup:      lookup,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// NeedsReminder is true only when the group meets today and no attendance
// value is recorded yet. Groups without class today are answered without a
// lookup. A failed or timed-out lookup counts as "not eligible".
func (e *EligibilityEvaluator) NeedsReminder(ctx context.Context, group record.Group, sched schedule.WeeklySchedule, today calendar.Day) bool {
	if !sched.MeetsOn(today) {
		return false
	}

	marked, err := boundedLookup(ctx, e.timeout, func(ctx context.Context) (bool, error) {
		return e.lookup.HasAttendance(ctx, group.ID, today)
	})
	if err != nil {
		err = fmt.Errorf("%w: attendance for group %d on %s: %w", ErrLookup, group.ID, today, err)
		e.logger.WithError(err).WithFields(logrus.Fields{
			"group_id": group.ID,
			"date":     today.String(),
		}).Warn("Attendance lookup failed, skipping reminder for this pass")
		return false
	}
	return !marked
}

// Evaluate checks groups concurrently and returns those needing a reminder,
// in input order.
func (e *EligibilityEvaluator) Evaluate(ctx context.Context, groups []ScheduledGroup, today calendar.Day) []ScheduledGroup {
	needs := make([]bool, len(groups))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, sg := range groups {
		i, sg := i, sg // per-iteration copies (go directive is pre-1.22)
		g.Go(func() error {
			needs[i] = e.NeedsReminder(ctx, sg.Group, sg.Schedule, today)
			return nil
		})
	}
	_ = g.Wait() // NeedsReminder never fails

	var due []ScheduledGroup
	for i, sg := range groups {
		if needs[i] {
			due = append(due, sg)
		}
	}
	return due
}
