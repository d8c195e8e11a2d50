package storage

import (
	"context"
	"time"
)

// TokenDenylist records refresh tokens revoked before their natural
// expiry (explicit logout). Entries are keyed by token id (jti) and
// carry a TTL equal to the token's remaining lifetime, so the list
// stays bounded without a background sweeper.
type TokenDenylist interface {
	// Revoke marks a token id as revoked until expiresAt
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether a token id is currently revoked.
	// Expired entries count as not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// PurgeExpired removes entries whose TTL has passed.
	// Returns the number of removed entries.
	PurgeExpired(ctx context.Context) (int, error)
}
