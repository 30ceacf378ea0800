// Package tokens mints and verifies the credentials handed to clients:
// signed JWT access tokens and opaque random refresh-token values.
package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/temporalwh/authcore/internal/common"
	"github.com/temporalwh/authcore/internal/randx"
	"github.com/temporalwh/authcore/internal/server/models"
)

// refreshTokenBytes is the entropy of a refresh-token value; hex encoding
// doubles it to a 64-character string.
const refreshTokenBytes = 32

// Claims is the access-token claim set: registered claims plus the user's
// email and role names. The jti registered claim is the revocation key.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Issuer mints access/refresh tokens with a fixed signing key, issuer,
// audience, and access-token lifetime. It is stateless and safe for
// concurrent use.
type Issuer struct {
	secret         []byte
	issuer         string
	audience       string
	accessValidity time.Duration
}

// NewIssuer constructs an Issuer.
func NewIssuer(secret []byte, issuer, audience string, accessValidity time.Duration) *Issuer {
	return &Issuer{
		secret:         secret,
		issuer:         issuer,
		audience:       audience,
		accessValidity: accessValidity,
	}
}

// AccessValidity returns the configured access-token lifetime. Revocation
// entries must never outlive it.
func (i *Issuer) AccessValidity() time.Duration {
	return i.accessValidity
}

// AccessToken mints a signed HS256 JWT for the user with a fresh jti and an
// expiry of now+lifetime.
func (i *Issuer) AccessToken(user *models.User, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessValidity)),
		},
		Email: user.Email,
		Roles: roles,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// RefreshToken produces a cryptographically random opaque value. Uniqueness
// is enforced by the refresh-token store, not here; a collision surfaces as a
// store conflict.
func (i *Issuer) RefreshToken() (string, error) {
	return randx.MakeRandHexString(refreshTokenBytes)
}

// ParseAccessToken verifies signature, signing method, issuer, audience, and
// expiry, and returns the typed claims. Any failure maps to
// common.ErrInvalidToken; callers must not leak the specific check.
func (i *Issuer) ParseAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
