// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/temporalwh/authcore/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	// It returns common.ErrorConflict when the token value already exists.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string and returns its
	// metadata. Implementations return common.ErrorNotFound when the token is
	// absent; an expired token is still returned, expiry is the caller's call.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByUser removes every refresh token owned by userID. Deleting zero
	// rows is not an error.
	DeleteByUser(ctx context.Context, userID string) error
}
