package app

import (
	"context"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/staff"

	"github.com/sirupsen/logrus"
)

// BacklogReminders nags managers and owners about unprocessed enrollments.
type BacklogReminders struct {
	store     record.Store
	directory staff.Directory
	timeout   time.Duration
	logger    *logrus.Entry
}

func NewBacklogReminders(store record.Store, directory staff.Directory, timeout time.Duration, logger *logrus.Entry) *BacklogReminders {
	return &BacklogReminders{
		store:     store,
		directory: directory,
		timeout:   timeout,
		logger:    logger.WithField("stream", notification.StreamUnprocessedBacklog),
	}
}

func (b *BacklogReminders) Stream() notification.Stream {
	return notification.StreamUnprocessedBacklog
}

func (b *BacklogReminders) Candidates(ctx context.Context, _ time.Time) ([]Candidate, error) {
	enrollments, err := boundedLookup(ctx, b.timeout, b.store.ListUnprocessedEnrollments)
	if err != nil {
		return nil, fmt.Errorf("%w: list unprocessed enrollments: %w", ErrLookup, err)
	}
	if len(enrollments) == 0 {
		return nil, nil
	}
	recipients, err := recipientsByRole(ctx, b.directory, b.timeout, staff.RoleManager, staff.RoleOwner)
	if err != nil {
		return nil, err
	}
	b.logger.WithField("enrollments", len(enrollments)).Debug("Unprocessed enrollments found")
	return BacklogCandidates(enrollments, recipients), nil
}

// BacklogCandidates yields one candidate per student; the first enrollment wins.
func BacklogCandidates(enrollments []record.Enrollment, recipients []int64) []Candidate {
	seen := make(map[int64]bool, len(enrollments))
	candidates := make([]Candidate, 0, len(enrollments))
	for _, e := range enrollments {
		if seen[e.StudentID] {
			continue
		}
		seen[e.StudentID] = true
		candidates = append(candidates, Candidate{
			Key:          notification.KeyFor(notification.StreamUnprocessedBacklog, e.StudentID),
			RecipientIDs: recipients,
			Payload:      renderBacklogReminder(e),
		})
	}
	return candidates
}

func renderBacklogReminder(e record.Enrollment) string {
	site := e.SiteName
	if site == "" {
		site = "не указан"
	}
	return fmt.Sprintf("Заявка не обработана: %s (филиал: %s), поступила %s.",
		e.StudentName, site, e.SubmittedAt.Format("02.01.2006 15:04"))
}

var _ Evaluator = (*BacklogReminders)(nil)
