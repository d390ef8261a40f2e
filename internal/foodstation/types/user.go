package types

import (
	"crypto/sha256"
	"strings"
	"time"
)

type Role string

const (
	RoleDonor    Role = "donor"
	RoleReceiver Role = "receiver"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleReceiver, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Role        Role       `json:"role"`
	ScanCount   int64      `json:"scan_count"`
	LastScanAt  *time.Time `json:"last_scan_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// HashCredential returns the SHA-256 of a scanned QR token. Stores only
// ever see the hash.
func HashCredential(token string) []byte {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return sum[:]
}
