package httpapi

import (
	"net/http"
	"strings"

	"github.com/temporalwh/authcore/internal/common"
	"github.com/temporalwh/authcore/internal/server/authsvc"
)

// Authenticate validates the bearer token on protected routes: signature,
// issuer, audience, and expiry via the parser, then the revocation cache. A
// token without a jti is rejected outright since it can never be revoked. On
// success the caller's identity is injected into the request context.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func (s *Server) authenticate(r *http.Request) (authsvc.Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return authsvc.Identity{}, common.ErrInvalidToken
	}

	claims, err := s.parser.ParseAccessToken(raw)
	if err != nil {
		return authsvc.Identity{}, err
	}
	if claims.ID == "" {
		return authsvc.Identity{}, common.ErrInvalidToken
	}

	revoked, err := s.revocations.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		return authsvc.Identity{}, common.ErrorInternal
	}
	if revoked {
		return authsvc.Identity{}, common.ErrTokenRevoked
	}

	id := authsvc.Identity{
		UserID: claims.Subject,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.TokenExpires = claims.ExpiresAt.Time
	}
	return id, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
