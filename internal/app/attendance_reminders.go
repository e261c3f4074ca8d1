package app

import (
	"context"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/schedule"
	"school_reminder_bot/internal/domain/staff"

	"github.com/sirupsen/logrus"
)

// AttendanceReminders asks teachers to mark attendance for today's classes.
type AttendanceReminders struct {
	store       record.Store
	directory   staff.Directory
	eligibility *EligibilityEvaluator
	timeout     time.Duration
	logger      *logrus.Entry
}

func NewAttendanceReminders(store record.Store, directory staff.Directory, eligibility *EligibilityEvaluator, timeout time.Duration, logger *logrus.Entry) *AttendanceReminders {
	return &AttendanceReminders{
		store:       store,
		directory:   directory,
		eligibility: eligibility,
		timeout:     timeout,
		logger:      logger.WithField("stream", notification.StreamAttendanceReminder),
	}
}

func (a *AttendanceReminders) Stream() notification.Stream {
	return notification.StreamAttendanceReminder
}

func (a *AttendanceReminders) Candidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	today := calendar.DayOf(now)

	groups, err := boundedLookup(ctx, a.timeout, a.store.ListActiveGroups)
	if err != nil {
		return nil, fmt.Errorf("%w: list active groups: %w", ErrLookup, err)
	}

	scheduled := ScheduleGroups(groups, a.logger)
	due := a.eligibility.Evaluate(ctx, scheduled, today)
	a.logger.WithFields(logrus.Fields{
		"groups":    len(groups),
		"scheduled": len(scheduled),
		"unmarked":  len(due),
	}).Debug("Attendance eligibility evaluated")

	candidates := make([]Candidate, 0, len(due))
	for _, sg := range due {
		recipients, err := a.recipients(ctx, sg.Group)
		if err != nil {
			a.logger.WithError(err).WithField("group_id", sg.Group.ID).Warn("Cannot route attendance reminder, skipping group")
			continue
		}
		candidates = append(candidates, Candidate{
			Key:          notification.KeyFor(notification.StreamAttendanceReminder, sg.Group.ID),
			RecipientIDs: recipients,
			Payload:      renderAttendanceReminder(sg, today),
		})
	}
	return candidates, nil
}

// ScheduleGroups parses each group's schedule. Groups whose names carry no
// schedule are skipped.
func ScheduleGroups(groups []record.Group, logger *logrus.Entry) []ScheduledGroup {
	scheduled := make([]ScheduledGroup, 0, len(groups))
	for _, g := range groups {
		sched, err := schedule.Parse(g.Name)
		if err != nil {
			logger.WithError(err).WithField("group_id", g.ID).Debug("Group has no parsable schedule")
			continue
		}
		scheduled = append(scheduled, ScheduledGroup{Group: g, Schedule: sched})
	}
	return scheduled
}

// recipients prefers the group's routing chat and falls back to the teacher.
func (a *AttendanceReminders) recipients(ctx context.Context, g record.Group) ([]int64, error) {
	if g.ChatID.Valid && g.ChatID.Int64 != 0 {
		return []int64{g.ChatID.Int64}, nil
	}
	if !g.TeacherID.Valid {
		return nil, fmt.Errorf("group %d: %w", g.ID, ErrNoRecipients)
	}

	teacher, err := boundedLookup(ctx, a.timeout, func(ctx context.Context) (*staff.Member, error) {
		return a.directory.GetByID(ctx, g.TeacherID.Int64)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: teacher %d: %w", ErrLookup, g.TeacherID.Int64, err)
	}
	if !teacher.IsActive || teacher.TelegramID == 0 {
		return nil, fmt.Errorf("teacher %d is inactive or has no Telegram ID: %w", teacher.ID, ErrNoRecipients)
	}
	return []int64{teacher.TelegramID}, nil
}

func renderAttendanceReminder(sg ScheduledGroup, today calendar.Day) string {
	return fmt.Sprintf("Напоминание: отметьте посещаемость группы «%s» за %s (занятие в %s).",
		sg.Group.Name, today.Format("02.01.2006"), sg.Schedule.Time)
}

var _ Evaluator = (*AttendanceReminders)(nil)
