package app

import (
	"context"
	"time"

	"school_reminder_bot/internal/domain/notification"
)

// Candidate is an obligation that may need a reminder in the current pass.
type Candidate struct {
	Key          notification.ObligationKey
	RecipientIDs []int64
	Payload      string
}

// Evaluator gathers the candidates of one stream. now is in the site location.
type Evaluator interface {
	Stream() notification.Stream
	Candidates(ctx context.Context, now time.Time) ([]Candidate, error)
}
