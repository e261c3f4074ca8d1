package app

import (
	"context"
	"fmt"
	"time"

	"school_reminder_bot/internal/domain/billing"
	"school_reminder_bot/internal/domain/calendar"
	"school_reminder_bot/internal/domain/notification"
	"school_reminder_bot/internal/domain/record"
	"school_reminder_bot/internal/domain/staff"

	"github.com/sirupsen/logrus"
)

// PaymentReminders tells managers about tuition falling due within three days.
type PaymentReminders struct {
	store     record.Store
	directory staff.Directory
	timeout   time.Duration
	logger    *logrus.Entry
}

func NewPaymentReminders(store record.Store, directory staff.Directory, timeout time.Duration, logger *logrus.Entry) *PaymentReminders {
	return &PaymentReminders{
		store:     store,
		directory: directory,
		timeout:   timeout,
		logger:    logger.WithField("stream", notification.StreamPaymentDue),
	}
}

func (p *PaymentReminders) Stream() notification.Stream { return notification.StreamPaymentDue }

func (p *PaymentReminders) Candidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	accounts, err := boundedLookup(ctx, p.timeout, p.store.ListBillingAccounts)
	if err != nil {
		return nil, fmt.Errorf("%w: list billing accounts: %w", ErrLookup, err)
	}
	candidates := PaymentCandidates(accounts, nil, calendar.DayOf(now), p.logger)
	if len(candidates) == 0 {
		return nil, nil
	}
	recipients, err := recipientsByRole(ctx, p.directory, p.timeout, staff.RoleManager)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].RecipientIDs = recipients
	}
	return candidates, nil
}

// PaymentCandidates selects students whose projected due date is 0-3 days away
// and who have not paid for the billing window yet.
func PaymentCandidates(accounts []record.BillingAccount, recipients []int64, today calendar.Day, logger *logrus.Entry) []Candidate {
	var candidates []Candidate
	for _, acc := range accounts {
		day, defaulted := billing.ParseBillingDay(acc.BillingDescriptor)
		if defaulted {
			logger.WithFields(logrus.Fields{
				"student_id": acc.StudentID,
				"descriptor": acc.BillingDescriptor,
			}).Debug("No billing day in descriptor, assuming the 1st")
		}

		proj, ok := billing.Project(day, today)
		if !ok {
			continue
		}
		if acc.PaidWithin(proj.WindowStart, proj.WindowEnd) {
			continue
		}
		candidates = append(candidates, Candidate{
			Key:          notification.KeyFor(notification.StreamPaymentDue, acc.StudentID),
			RecipientIDs: recipients,
			Payload:      renderPaymentReminder(acc, proj),
		})
	}
	return candidates
}

func renderPaymentReminder(acc record.BillingAccount, p billing.Projection) string {
	var when string
	switch p.DaysUntilDue {
	case 0:
		when = "сегодня"
	case 1:
		when = "завтра"
	default:
		when = fmt.Sprintf("через %d дня", p.DaysUntilDue)
	}
	return fmt.Sprintf("Оплата: у ученика %s срок оплаты %s (%s).", acc.StudentName, when, p.DueDate.Format("02.01.2006"))
}

// recipientsByRole resolves the Telegram IDs of active staff with the given roles.
func recipientsByRole(ctx context.Context, directory staff.Directory, timeout time.Duration, roles ...staff.Role) ([]int64, error) {
	members, err := boundedLookup(ctx, timeout, func(ctx context.Context) ([]*staff.Member, error) {
		return directory.ListActiveByRole(ctx, roles...)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list staff %v: %w", ErrLookup, roles, err)
	}
	ids := staff.TelegramIDs(members)
	if len(ids) == 0 {
		return nil, fmt.Errorf("roles %v: %w", roles, ErrNoRecipients)
	}
	return ids, nil
}

var _ Evaluator = (*PaymentReminders)(nil)
