// Package directory exposes the slice of the user directory the auth core
// consumes: credential verification and user/role lookups. Account creation
// and administration belong to the wider directory application.
package directory

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/temporalwh/authcore/internal/common"
	"github.com/temporalwh/authcore/internal/server/models"
	"github.com/temporalwh/authcore/internal/server/repositories/users"
)

// Service answers identity questions against the users repository.
type Service struct {
	repo users.Repository
}

// NewService constructs a directory Service over the given repository.
func NewService(repo users.Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies the email/password pair and returns the user with its
// roles. Unknown email and wrong password both yield common.ErrorUnauthenticated
// so the caller cannot tell which check failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, []string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthenticated
		}
		return nil, nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrorUnauthenticated
	}

	roles, err := s.repo.Roles(ctx, user.ID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	return user, roles, nil
}

// GetByID returns the user with the given id and its roles, or
// common.ErrorNotFound when the user no longer exists.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, []string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, common.ErrorInternal
	}

	roles, err := s.repo.Roles(ctx, user.ID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	return user, roles, nil
}
