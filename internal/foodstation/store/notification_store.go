package store

import (
	"context"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type NotificationStore interface {
	Enqueue(ctx context.Context, n types.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]types.Notification, error)
}
