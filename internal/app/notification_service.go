// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// ErrUnknownStream is returned for a stream without a registered evaluator.
var ErrUnknownStream = errors.New("unknown notification stream")

// NotificationService runs one evaluation pass of a stream.
type NotificationService interface {
	// RunStream gathers the stream's candidates, gates each through the dedup
	// ledger and emits the ones not yet notified on now's calendar day.
	RunStream(ctx context.Context, stream notification.Stream, now time.Time) (RunReport, error)
}

// RunReport summarizes one pass.
type RunReport struct {
	Stream     notification.Stream
	Candidates int
	Fired      int
	Skipped    int // already notified today
	Failed     int // ledger or dispatch failure, retried on the next trigger time
	Pruned     int
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	evaluators map[notification.Stream]Evaluator
	ledger     notification.Ledger
	dispatcher notification.Dispatcher
	logger     *logrus.Entry
}

func NewNotificationServiceImpl(
	ledger notification.Ledger,
	dispatcher notification.Dispatcher,
	logger *logrus.Entry,
	evaluators ...Evaluator,
) *NotificationServiceImpl {
	byStream := make(map[notification.Stream]Evaluator, len(evaluators))
	for _, ev := range evaluators {
		byStream[ev.Stream()] = ev
	}
	return &NotificationServiceImpl{
		evaluators: byStream,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *NotificationServiceImpl) RunStream(ctx context.Context, stream notification.Stream, now time.Time) (RunReport, error) {
	report := RunReport{Stream: stream}
	logger := s.logger.WithField("stream", stream)

	ev, ok := s.evaluators[stream]
	if !ok {
		return report, fmt.Errorf("%w: %s", ErrUnknownStream, stream)
	}

	today := calendar.DayOf(now)
	candidates, err := ev.Candidates(ctx, now)
	if err != nil {
		return report, fmt.Errorf("gather %s candidates: %w", stream, err)
	}
	report.Candidates = len(candidates)

	for _, c := range candidates {
		switch s.fire(ctx, logger, stream, c, today) {
		case outcomeFired:
			report.Fired++
		case outcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	report.Pruned = s.ledger.MaybePrune(stream)

	logger.WithFields(logrus.Fields{
		"date":       today.String(),
		"candidates": report.Candidates,
		"fired":      report.Fired,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
		"pruned":     report.Pruned,
	}).Info("Stream pass finished")
	return report, nil
}

type outcome int

const (
	outcomeFired outcome = iota
	outcomeSkipped
	outcomeFailed
)

// fire emits first and records second: a crash between the two may repeat
// a reminder, but never loses one.
func (s *NotificationServiceImpl) fire(ctx context.Context, logger *logrus.Entry, stream notification.Stream, c Candidate, today calendar.Day) outcome {
	logger = logger.WithField("obligation_key", c.Key.String())

	fired, err := s.ledger.AlreadyFired(stream, c.Key, today)
	if errors.Is(err, notification.ErrLedgerCorrupt) {
		logger.WithError(err).Warn("Dedup ledger corrupt, resetting stream partition")
		s.ledger.Reset(stream)
		fired, err = false, nil
	}
	if err != nil {
		logger.WithError(err).Error("Dedup ledger check failed")
		return outcomeFailed
	}
	if fired {
		logger.Debug("Already notified today, skipping")
		return outcomeSkipped
	}
	if len(c.RecipientIDs) == 0 {
		logger.Warn("Candidate has no recipients, skipping")
		return outcomeFailed
	}

	intent := notification.NewIntent(c.Key, c.RecipientIDs, c.Payload)
	logger = logger.WithField("intent_id", intent.ID.String())
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		logger.WithError(err).Error("Failed to dispatch notification")
		return outcomeFailed
	}

	if err := s.ledger.RecordFired(stream, c.Key, today); err != nil {
		logger.WithError(err).Error("Notification sent but firing not recorded; it may repeat today")
	}
	logger.WithField("recipients", len(c.RecipientIDs)).Info("Notification dispatched")
	return outcomeFired
}

var _ NotificationService = (*NotificationServiceImpl)(nil)
