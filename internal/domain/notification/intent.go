// internal/domain/notification/intent.go
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Intent is a gated notification handed to the Dispatcher.
type Intent struct {
	ID           uuid.UUID // correlates dispatcher logs with scheduler logs
	Stream       Stream
	RecipientIDs []int64 // Telegram chat or user IDs
	Payload      string  // rendered message text
	Key          ObligationKey
}

func NewIntent(key ObligationKey, recipients []int64, payload string) Intent {
	return Intent{
		ID:           uuid.New(),
		Stream:       key.Stream,
		RecipientIDs: recipients,
		Payload:      payload,
		Key:          key,
	}
}

// Dispatcher delivers intents. A nil error means the intent was emitted;
// the scheduler records the firing only then and never retries on its own.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) error
}
