// Package authsvc orchestrates the session lifecycle: Login, Refresh, and
// Logout. It composes the user directory, the token issuer, the refresh-token
// store, the revocation cache, and the background task queue.
package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/temporalwh/authcore/internal/common"
	"github.com/temporalwh/authcore/internal/dbx"
	"github.com/temporalwh/authcore/internal/logging"
	"github.com/temporalwh/authcore/internal/server/models"
	"github.com/temporalwh/authcore/internal/server/repositories/repomanager"
	"github.com/temporalwh/authcore/internal/server/revocation"
	"github.com/temporalwh/authcore/internal/server/taskqueue"
)

// maxPersistAttempts bounds how many times a colliding refresh-token value is
// regenerated before the persistence task gives up.
const maxPersistAttempts = 3

// Session is the response shape shared by Login and Refresh.
type Session struct {
	UserID       string
	Email        string
	FirstName    string
	LastName     string
	AccessToken  string
	RefreshToken string
}

// Identity carries the caller's claims extracted from an already-validated
// request. TokenExpires is the access token's exp claim.
type Identity struct {
	UserID       string
	JTI          string
	TokenExpires time.Time
}

// Directory is the consumed slice of the user directory.
type Directory interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, []string, error)
	GetByID(ctx context.Context, id string) (*models.User, []string, error)
}

// TokenIssuer mints the two credential kinds handed to clients.
type TokenIssuer interface {
	AccessToken(user *models.User, roles []string) (string, error)
	RefreshToken() (string, error)
	AccessValidity() time.Duration
}

// Enqueuer is the task-queue surface the coordinator needs.
type Enqueuer interface {
	Enqueue(task taskqueue.Task)
}

// Service implements the session lifecycle operations.
type Service struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	directory       Directory
	issuer          TokenIssuer
	revocations     revocation.Cache
	queue           Enqueuer
	logger          logging.Logger
	refreshValidity time.Duration
}

// NewService constructs the coordinator.
func NewService(
	db *sql.DB,
	repos repomanager.RepositoryManager,
	dir Directory,
	issuer TokenIssuer,
	revocations revocation.Cache,
	queue Enqueuer,
	logger logging.Logger,
	refreshValidity time.Duration,
) *Service {
	return &Service{
		db:              db,
		repos:           repos,
		directory:       dir,
		issuer:          issuer,
		revocations:     revocations,
		queue:           queue,
		logger:          logger.With("module", "authsvc"),
		refreshValidity: refreshValidity,
	}
}

// Login verifies credentials, mints a token pair, and returns immediately.
// Persisting the refresh token happens on the background queue; earlier
// refresh tokens of the same user are deliberately left in place so other
// devices stay signed in.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, common.ErrorInvalidInput
	}

	user, roles, err := s.directory.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, refresh, err := s.mintSession(user, roles)
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(s.persistTask(user.ID, refresh, false))

	return session, nil
}

// Refresh exchanges a stored refresh token for a fresh token pair. Rotation
// (delete all of the user's tokens, insert the new one) runs as a background
// task in a single transaction, in enqueue order relative to other tasks.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, common.ErrorInvalidInput
	}

	repo := s.repos.RefreshTokens(s.db)
	stored, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, common.ErrorInternal
	}
	if stored.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, roles, err := s.directory.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, common.ErrorInternal
	}

	session, refresh, err := s.mintSession(user, roles)
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(s.persistTask(user.ID, refresh, true))

	return session, nil
}

// Logout removes the caller's refresh tokens and revokes the presented access
// token for its remaining lifetime. Both writes are synchronous: a request
// bearing the same token immediately afterwards must already be rejected.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	if id.UserID == "" {
		return common.ErrorUnauthorized
	}

	repo := s.repos.RefreshTokens(s.db)
	if err := repo.DeleteByUser(ctx, id.UserID); err != nil {
		return common.ErrorInternal
	}

	if id.JTI == "" {
		return nil
	}

	remaining := time.Until(id.TokenExpires)
	if remaining <= 0 {
		// already expired, nothing left to protect
		return nil
	}
	if max := s.issuer.AccessValidity(); remaining > max {
		remaining = max
	}

	if err := s.revocations.SetRevoked(ctx, id.JTI, remaining); err != nil {
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "session revoked", "user_id", id.UserID, "jti", id.JTI)
	return nil
}

func (s *Service) mintSession(user *models.User, roles []string) (*Session, string, error) {
	access, err := s.issuer.AccessToken(user, roles)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	refresh, err := s.issuer.RefreshToken()
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return &Session{
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		AccessToken:  access,
		RefreshToken: refresh,
	}, refresh, nil
}

// persistTask captures its dependencies at enqueue time and returns the
// deferred persistence step. With rotate set, it deletes every token the user
// owns before inserting the new one, inside one transaction. A value
// collision is retried with a regenerated value and never surfaced; the
// caller has already received its response.
func (s *Service) persistTask(userID, value string, rotate bool) taskqueue.Task {
	return func(ctx context.Context) error {
		for attempt := 0; attempt < maxPersistAttempts; attempt++ {
			err := s.saveRefreshToken(ctx, userID, value, rotate)
			if err == nil {
				s.logger.Debug(ctx, "refresh token persisted", "user_id", userID, "rotated", rotate)
				return nil
			}
			if !errors.Is(err, common.ErrorConflict) {
				return err
			}

			s.logger.Warn(ctx, "refresh token collision, regenerating", "user_id", userID)
			value, err = s.issuer.RefreshToken()
			if err != nil {
				return err
			}
		}
		return common.ErrorConflict
	}
}

func (s *Service) saveRefreshToken(ctx context.Context, userID, value string, rotate bool) error {
	if !rotate {
		return s.repos.RefreshTokens(s.db).Create(ctx, userID, value, s.refreshValidity)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)
		if err := repo.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return repo.Create(ctx, userID, value, s.refreshValidity)
	})
}
