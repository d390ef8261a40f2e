package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// UserRecord is a user plus the hash of the QR token that identifies them.
// The raw token is never stored.
type UserRecord struct {
	User           types.User
	CredentialHash []byte // SHA-256
}

type UserStore interface {
	CreateUser(ctx context.Context, rec UserRecord) error
	GetUser(ctx context.Context, userID string) (types.User, error)
	// LookupByCredential returns types.ErrNotFound when no user matches.
	LookupByCredential(ctx context.Context, hash []byte) (types.User, error)
	// RecordScan increments the scan counter and stamps the scan time.
	RecordScan(ctx context.Context, userID string, t time.Time) (types.User, error)
}
