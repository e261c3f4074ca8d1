package app

import (
	"context"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/attendance"
	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/staff"

	"github.com/sirupsen/logrus"
)

// AbsenceAlerts reports students with two unexplained absences in a row.
type AbsenceAlerts struct {
	store     record.Store
	directory staff.Directory
	timeout   time.Duration
	logger    *logrus.Entry
}

func NewAbsenceAlerts(store record.Store, directory staff.Directory, timeout time.Duration, logger *logrus.Entry) *AbsenceAlerts {
	return &AbsenceAlerts{
		store:     store,
		directory: directory,
		timeout:   timeout,
		logger:    logger.WithField("stream", notification.StreamAbsenceStreak),
	}
}

func (a *AbsenceAlerts) Stream() notification.Stream { return notification.StreamAbsenceStreak }

func (a *AbsenceAlerts) Candidates(ctx context.Context, _ time.Time) ([]Candidate, error) {
	histories, err := boundedLookup(ctx, a.timeout, a.store.ListAttendanceHistories)
	if err != nil {
		return nil, fmt.Errorf("%w: list attendance histories: %w", ErrLookup, err)
	}
	recipients, err := recipientsByRole(ctx, a.directory, a.timeout, staff.RoleManager, staff.RoleOwner)
	if err != nil {
		return nil, err
	}

	candidates := AbsenceCandidates(histories, recipients)
	a.logger.WithFields(logrus.Fields{
		"histories": len(histories),
		"streaks":   len(candidates),
	}).Debug("Absence streaks detected")
	return candidates, nil
}

// AbsenceCandidates turns detected streaks into one candidate per student.
func AbsenceCandidates(histories []attendance.StudentHistory, recipients []int64) []Candidate {
	streaks := attendance.DetectStreaks(histories)
	candidates := make([]Candidate, 0, len(streaks))
	for _, s := range streaks {
		candidates = append(candidates, Candidate{
			Key:          notification.KeyFor(notification.StreamAbsenceStreak, s.StudentID),
			RecipientIDs: recipients,
			Payload:      renderAbsenceAlert(s),
		})
	}
	return candidates
}

func renderAbsenceAlert(s attendance.Streak) string {
	return fmt.Sprintf("Пропуски: ученик %s (группа «%s») пропустил без уважительной причины два занятия подряд: %s и %s.",
		s.StudentName, s.GroupName, s.Dates[0].Format("02.01.2006"), s.Dates[1].Format("02.01.2006"))
}

var _ Evaluator = (*AbsenceAlerts)(nil)
