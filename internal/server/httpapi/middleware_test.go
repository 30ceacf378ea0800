package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporalwh/authcore/internal/server/authsvc"
	"github.com/temporalwh/authcore/internal/server/models"
	"github.com/temporalwh/authcore/internal/server/tokens"
)

// protectedProbe records whether the inner handler ran and what identity the
// middleware injected.
type protectedProbe struct {
	ran bool
	id  authsvc.Identity
	ok  bool
}

func (p *protectedProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.ran = true
		p.id, p.ok = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func callProtected(t *testing.T, srv *Server, probe *protectedProbe, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	srv.Authenticate(probe.handler()).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_ValidTokenInjectsIdentity(t *testing.T) {
	srv, issuer := newTestServer(&fakeAuth{}, &fakeRevocations{})

	access, err := issuer.AccessToken(&models.User{ID: "u1", Email: "a@b.com"}, nil)
	require.NoError(t, err)

	probe := &protectedProbe{}
	rec := callProtected(t, srv, probe, "Bearer "+access)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, probe.ran)
	require.True(t, probe.ok, "identity missing from context")
	assert.Equal(t, "u1", probe.id.UserID)
	assert.NotEmpty(t, probe.id.JTI)
}

func TestAuthenticate_RejectsMissingAndMalformedHeaders(t *testing.T) {
	srv, _ := newTestServer(&fakeAuth{}, &fakeRevocations{})

	for _, header := range []string{"", "Basic dXNlcg==", "Bearer", "not-a-token"} {
		probe := &protectedProbe{}
		rec := callProtected(t, srv, probe, header)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, probe.ran, "handler ran for header %q", header)
	}
}

func TestAuthenticate_RejectsForeignSignature(t *testing.T) {
	srv, _ := newTestServer(&fakeAuth{}, &fakeRevocations{})

	other := tokens.NewIssuer([]byte("other-secret"), "authcore", "authcore-clients", 10*time.Minute)
	access, err := other.AccessToken(&models.User{ID: "u1"}, nil)
	require.NoError(t, err)

	probe := &protectedProbe{}
	rec := callProtected(t, srv, probe, "Bearer "+access)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, probe.ran)
}

func TestAuthenticate_RejectsTokenWithoutJTI(t *testing.T) {
	srv, _ := newTestServer(&fakeAuth{}, &fakeRevocations{})

	// hand-craft an otherwise valid token with no jti claim
	now := time.Now()
	claims := tokens.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "authcore",
			Audience:  jwt.ClaimStrings{"authcore-clients"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	probe := &protectedProbe{}
	rec := callProtected(t, srv, probe, "Bearer "+access)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, probe.ran, "a token that can never be revoked must not pass")
}

func TestAuthenticate_RejectsRevokedJTI(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]bool{}}
	srv, issuer := newTestServer(&fakeAuth{}, revocations)

	access, err := issuer.AccessToken(&models.User{ID: "u1"}, nil)
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(access)
	require.NoError(t, err)
	revocations.revoked[claims.ID] = true

	probe := &protectedProbe{}
	rec := callProtected(t, srv, probe, "Bearer "+access)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, probe.ran)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String(),
		"a revoked token must get the same body as any other credential failure")
}

func TestAuthenticate_CacheFailureIsServerError(t *testing.T) {
	srv, issuer := newTestServer(&fakeAuth{}, &fakeRevocations{err: errors.New("redis down")})

	access, err := issuer.AccessToken(&models.User{ID: "u1"}, nil)
	require.NoError(t, err)

	probe := &protectedProbe{}
	rec := callProtected(t, srv, probe, "Bearer "+access)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, probe.ran, "fail closed when the revocation cache is unreachable")
}
