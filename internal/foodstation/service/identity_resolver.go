package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

var (
	identityCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "identity_cache_hits_total",
		Help:      "Credential lookups served from the identity cache.",
	})
	identityCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "foodstation",
		Name:      "identity_cache_misses_total",
		Help:      "Credential lookups that went to the user store.",
	})
)

// IdentityResolver maps a scanned QR token to a registered user. Only the
// hash -> user id mapping is cached; every successful resolve still writes
// the scan counter through to the store.
type IdentityResolver struct {
	users store.UserStore
	cache *expirable.LRU[string, string]
}

func NewIdentityResolver(users store.UserStore, cacheSize int, ttl time.Duration) *IdentityResolver {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &IdentityResolver{
		users: users,
		cache: expirable.NewLRU[string, string](cacheSize, nil, ttl),
	}
}

// Resolve returns types.ErrNotFound for an unknown or empty token.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (types.User, error) {
	if strings.TrimSpace(token) == "" {
		return types.User{}, fmt.Errorf("empty credential: %w", types.ErrNotFound)
	}
	hash := types.HashCredential(token)
	key := hex.EncodeToString(hash)

	userID, ok := r.cache.Get(key)
	if ok {
		identityCacheHitsTotal.Inc()
	} else {
		identityCacheMissesTotal.Inc()
		u, err := r.users.LookupByCredential(ctx, hash)
		if err != nil {
			return types.User{}, err
		}
		userID = u.ID
		r.cache.Add(key, userID)
	}

	u, err := r.users.RecordScan(ctx, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			r.cache.Remove(key)
		}
		return types.User{}, err
	}
	return u, nil
}

// Authenticate resolves a bearer token without counting it as a station
// scan. Unknown tokens yield types.ErrUnauthorized.
func (r *IdentityResolver) Authenticate(ctx context.Context, token string) (types.User, error) {
	if strings.TrimSpace(token) == "" {
		return types.User{}, types.ErrUnauthorized
	}
	u, err := r.users.LookupByCredential(ctx, types.HashCredential(token))
	if errors.Is(err, types.ErrNotFound) {
		return types.User{}, types.ErrUnauthorized
	}
	return u, err
}

// RequireAdmin authenticates token and checks the stored role.
func (r *IdentityResolver) RequireAdmin(ctx context.Context, token string) (types.User, error) {
	u, err := r.Authenticate(ctx, token)
	if err != nil {
		return types.User{}, err
	}
	if !u.IsAdmin() {
		return types.User{}, fmt.Errorf("user %s: %w", u.ID, types.ErrForbidden)
	}
	return u, nil
}
