package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"school_reminder_bot/internal/domain/notification"
	tg "school_reminder_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

const (
	defaultRatePerSec = 20
	defaultRetries    = 2
	defaultBackoff    = 200 * time.Millisecond
	// Longer flood waits are left to the next trigger.
	maxFloodWait = 30 * time.Second
)

// telebot reports API errors it has no sentinel for as plain text.
var reAPICode = regexp.MustCompile(`^telegram: .*\((\d{3})\)$`)

// ErrNoDelivery is returned when an intent reached none of its recipients.
var ErrNoDelivery = errors.New("notification delivered to no recipient")

// Dispatcher sends intents to Telegram, one message per recipient, under a
// global send rate.
type Dispatcher struct {
	client    tg.Client
	limiter   *rate.Limiter
	retries   int
	backoff   time.Duration
	floodUnit time.Duration // scales the retry_after seconds of a flood error
	logger    *logrus.Entry
}

func NewDispatcher(client tg.Client, ratePerSec int, logger *logrus.Entry) *Dispatcher {
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	return &Dispatcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		retries:   defaultRetries,
		backoff:   defaultBackoff,
		floodUnit: time.Second,
		logger:    logger,
	}
}

// Dispatch succeeds when at least one recipient got the message. Failed
// recipients are logged and do not fail the intent.
func (d *Dispatcher) Dispatch(ctx context.Context, intent notification.Intent) error {
	logger := d.logger.WithFields(logrus.Fields{
		"intent_id":      intent.ID.String(),
		"stream":         intent.Stream,
		"obligation_key": intent.Key.String(),
	})

	if len(intent.RecipientIDs) == 0 {
		return fmt.Errorf("%w: intent has no recipients", ErrNoDelivery)
	}

	var errs []error
	delivered := 0
	for _, chatID := range intent.RecipientIDs {
		if err := d.send(ctx, chatID, intent.Payload); err != nil {
			logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message to recipient")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("%w: %w", ErrNoDelivery, errors.Join(errs...))
	}
	if len(errs) > 0 {
		logger.WithFields(logrus.Fields{
			"delivered": delivered,
			"failed":    len(errs),
		}).Warn("Notification partially delivered")
	}
	return nil
}

// send retries transient failures a few times with a growing pause. Flood
// errors wait for as long as Telegram asks.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) error {
	for attempt := 1; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		opts := &telebot.SendOptions{DisableWebPagePreview: true}
		err := d.client.SendMessage(chatID, text, opts)
		if err == nil {
			return nil
		}
		if attempt > d.retries {
			return err
		}
		wait, ok := d.retryDelay(err, attempt)
		if !ok {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryDelay is the pause before the next attempt; ok is false when the error
// is not worth repeating.
func (d *Dispatcher) retryDelay(err error, attempt int) (wait time.Duration, ok bool) {
	var flood telebot.FloodError
	if errors.As(err, &flood) {
		wait = time.Duration(flood.RetryAfter) * d.floodUnit
		return wait, wait <= maxFloodWait
	}
	if permanent(err) {
		return 0, false
	}
	return d.backoff * time.Duration(attempt), true
}

// permanent reports errors that repeating the request cannot fix: bad
// requests, blocked bots and chats the bot was removed from.
func permanent(err error) bool {
	var apiErr *telebot.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 || apiErr.Code == 403
	}
	if m := reAPICode.FindStringSubmatch(err.Error()); m != nil {
		return m[1] == "400" || m[1] == "403"
	}
	return false
}

var _ notification.Dispatcher = (*Dispatcher)(nil)
