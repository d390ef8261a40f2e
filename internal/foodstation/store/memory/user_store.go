package memory

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

type UserStore struct {
	mu     sync.RWMutex
	users  map[string]types.User
	byHash map[string]string // hex(credential hash) -> user id
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[string]types.User),
		byHash: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, rec store.UserRecord) error {
	id := strings.TrimSpace(rec.User.ID)
	if id == "" {
		return fmt.Errorf("%w: user id is required", types.ErrValidation)
	}
	if len(rec.CredentialHash) == 0 {
		return fmt.Errorf("%w: credential is required", types.ErrValidation)
	}
	key := hex.EncodeToString(rec.CredentialHash)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; ok {
		return fmt.Errorf("%w: user %s already exists", types.ErrValidation, id)
	}
	if _, ok := s.byHash[key]; ok {
		return fmt.Errorf("%w: credential already registered", types.ErrValidation)
	}
	u := rec.User
	u.ID = id
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[id] = u
	s.byHash[key] = id
	return nil
}

func (s *UserStore) GetUser(_ context.Context, userID string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return types.User{}, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	return u, nil
}

func (s *UserStore) LookupByCredential(_ context.Context, hash []byte) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hex.EncodeToString(hash)]
	if !ok {
		return types.User{}, fmt.Errorf("credential: %w", types.ErrNotFound)
	}
	return s.users[id], nil
}

func (s *UserStore) RecordScan(_ context.Context, userID string, t time.Time) (types.User, error) {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return types.User{}, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	u.ScanCount++
	u.LastScanAt = &t
	s.users[userID] = u
	return u, nil
}
