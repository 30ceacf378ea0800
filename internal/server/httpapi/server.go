// Package httpapi exposes the session lifecycle over HTTP JSON endpoints and
// carries the bearer-token middleware that guards protected routes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/temporalwh/authcore/internal/logging"
	"github.com/temporalwh/authcore/internal/server/authsvc"
	"github.com/temporalwh/authcore/internal/server/revocation"
	"github.com/temporalwh/authcore/internal/server/tokens"
)

// shutdownTimeout bounds how long in-flight requests may finish after
// shutdown begins.
const shutdownTimeout = 5 * time.Second

// Authenticator is the session-lifecycle surface the handlers call.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*authsvc.Session, error)
	Logout(ctx context.Context, id authsvc.Identity) error
}

// TokenParser verifies a presented access token and returns its claims.
type TokenParser interface {
	ParseAccessToken(raw string) (*tokens.Claims, error)
}

// Server is the HTTP front of the auth service.
type Server struct {
	address     string
	auth        Authenticator
	parser      TokenParser
	revocations revocation.Cache
	logger      logging.Logger
}

// NewServer constructs the HTTP server.
func NewServer(address string, auth Authenticator, parser TokenParser, revocations revocation.Cache, logger logging.Logger) *Server {
	return &Server{
		address:     address,
		auth:        auth,
		parser:      parser,
		revocations: revocations,
		logger:      logger.With("module", "http_server"),
	}
}

// Handler builds the route table. Logout sits behind the bearer-token
// middleware; Login and Refresh are anonymous by nature.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.loginHandler)
	mux.HandleFunc("POST /api/auth/refresh-token", s.refreshHandler)
	mux.Handle("POST /api/auth/logout", s.Authenticate(http.HandlerFunc(s.logoutHandler)))
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
