// Package revocation tracks access-token identifiers that must be rejected
// before their natural expiry. Entries carry a TTL equal to the remaining
// token lifetime, so the backing store expires them on its own; absence of a
// key means "not revoked".
package revocation

import (
	"context"
	"time"
)

// Cache is the revocation marker store consulted on every authenticated
// request.
type Cache interface {
	// SetRevoked marks jti as revoked for ttl. Calling it again for the same
	// jti never shortens the window established by the first call.
	SetRevoked(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether jti has an unexpired revocation marker.
	// Unknown identifiers are not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
