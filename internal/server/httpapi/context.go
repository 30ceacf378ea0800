package httpapi

import (
	"context"

	"github.com/temporalwh/authcore/internal/server/authsvc"
)

// ctxKey is a private type for context keys to avoid collisions.
type ctxKey string

const identityKey ctxKey = "identity"

// withIdentity stores the authenticated caller's identity on the context.
func withIdentity(ctx context.Context, id authsvc.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity injected by the Authenticate
// middleware, if any.
func IdentityFromContext(ctx context.Context) (authsvc.Identity, bool) {
	id, ok := ctx.Value(identityKey).(authsvc.Identity)
	return id, ok
}
