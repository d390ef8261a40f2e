package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type NotificationStore struct {
	mu    sync.Mutex
	items []types.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{}
}

func (s *NotificationStore) Enqueue(_ context.Context, n types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
	return nil
}

func (s *NotificationStore) ListForUser(_ context.Context, userID string, limit int) ([]types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Notification
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID != userID {
			continue
		}
		out = append(out, s.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All returns every notification in enqueue order.  Test-only helper.
func (s *NotificationStore) All() []types.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Notification, len(s.items))
	copy(out, s.items)
	return out
}
