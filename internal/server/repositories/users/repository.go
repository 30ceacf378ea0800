// Package users declares the persistence contract behind the user directory.
package users

import (
	"context"

	"github.com/temporalwh/authcore/internal/server/models"
)

// Repository exposes the directory lookups the auth core consumes. User
// creation, profile editing, and role administration live in the wider
// directory application and are not part of this surface.
type Repository interface {
	// GetByEmail returns the user with the given email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Roles returns the role names assigned to the user. A user with no
	// roles yields an empty slice, not an error.
	Roles(ctx context.Context, userID string) ([]string, error)
}
