package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"school_reminder_bot/internal/app" // For NotificationService interface
	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval = time.Minute
	defaultRunTimeout   = 5 * time.Minute
)

// Options configure a NotificationScheduler. Zero values get defaults.
type Options struct {
	Location     *time.Location
	PollInterval time.Duration
	RunTimeout   time.Duration // upper bound for one stream pass
	Triggers     map[notification.Stream][]calendar.Clock
	Clock        func() time.Time
}

type minute struct {
	day   calendar.Day
	clock calendar.Clock
}

// NotificationScheduler wakes up every poll interval and runs each stream whose
// trigger time matches the current site-local minute.
type NotificationScheduler struct {
	cronEngine   *cron.Cron
	notifService app.NotificationService // Using the interface
	logger       *logrus.Entry
	loc          *time.Location
	pollInterval time.Duration
	runTimeout   time.Duration
	triggers     map[notification.Stream][]calendar.Clock
	now          func() time.Time

	mu            sync.Mutex
	lastEvaluated map[notification.Stream]minute
	stopping      atomic.Bool
}

func NewNotificationScheduler(notifService app.NotificationService, logger *logrus.Entry, opts Options) *NotificationScheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = defaultRunTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cronLogger := cron.PrintfLogger(logger)
	return &NotificationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		notifService:  notifService,
		logger:        logger,
		loc:           opts.Location,
		pollInterval:  opts.PollInterval,
		runTimeout:    opts.RunTimeout,
		triggers:      opts.Triggers,
		now:           opts.Clock,
		lastEvaluated: make(map[notification.Stream]minute),
	}
}

func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	spec := fmt.Sprintf("@every %s", s.pollInterval)
	if _, err := s.cronEngine.AddFunc(spec, func() {
		s.Tick(context.Background(), s.now())
	}); err != nil {
		return fmt.Errorf("add wake-up job %q: %w", spec, err)
	}

	for _, stream := range notification.Streams {
		s.logger.WithFields(logrus.Fields{
			"stream":   stream,
			"triggers": s.triggers[stream],
		}).Info("Stream trigger times registered")
	}

	s.cronEngine.Start()
	s.logger.WithField("poll_interval", s.pollInterval.String()).Info("Notification scheduler started.")
	return nil
}

// Tick evaluates, in fixed order, every stream that has a trigger at now's
// minute and has not been evaluated in that minute yet. It returns the
// streams it ran.
func (s *NotificationScheduler) Tick(ctx context.Context, now time.Time) []notification.Stream {
	now = now.In(s.loc)
	current := minute{day: calendar.DayOf(now), clock: calendar.ClockOf(now)}

	var ran []notification.Stream
	for _, stream := range notification.Streams {
		if s.stopping.Load() {
			s.logger.Debug("Scheduler stopping, no new stream passes")
			break
		}
		if !s.due(stream, current) {
			continue
		}
		s.runStream(ctx, stream, now)
		ran = append(ran, stream)
	}
	return ran
}

// due marks the stream as evaluated for this minute when a trigger matches.
func (s *NotificationScheduler) due(stream notification.Stream, current minute) bool {
	matched := false
	for _, c := range s.triggers[stream] {
		if c == current.clock {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastEvaluated[stream]; ok && last == current {
		return false
	}
	s.lastEvaluated[stream] = current
	return true
}

// runStream isolates one stream pass: errors and panics are logged and do not
// reach the other streams.
func (s *NotificationScheduler) runStream(ctx context.Context, stream notification.Stream, now time.Time) {
	logger := s.logger.WithField("stream", stream)
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Stream pass panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	logger.WithField("trigger", calendar.ClockOf(now).String()).Info("Stream triggered")
	if _, err := s.notifService.RunStream(ctx, stream, now); err != nil {
		logger.WithError(err).Error("Stream pass failed")
	}
}

// Stop prevents new stream passes and waits for the running one to finish.
func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	s.stopping.Store(true)
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Notification scheduler gracefully stopped.")
}
