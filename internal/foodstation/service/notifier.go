package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// Notifier is the donor notification sink. Notify is fire-and-forget: a
// failed write is logged and never reaches the caller.
type Notifier struct {
	store  store.NotificationStore
	logger zerolog.Logger
}

func NewNotifier(st store.NotificationStore, logger zerolog.Logger) *Notifier {
	return &Notifier{store: st, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, note types.Notification) {
	if strings.TrimSpace(note.UserID) == "" {
		return
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	if err := n.store.Enqueue(ctx, note); err != nil {
		n.logger.Error().Err(err).
			Str("user_id", note.UserID).
			Str("station_id", note.StationID).
			Msg("notification dropped")
	}
}

func (n *Notifier) List(ctx context.Context, userID string, limit int) ([]types.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return n.store.ListForUser(ctx, strings.TrimSpace(userID), limit)
}
