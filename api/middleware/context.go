package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the acting identity, a guest with no session when unset.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if ctx == nil {
		return auth.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(auth.Identity); ok {
		return v
	}
	return auth.Identity{}
}

// WithIdentity injects the acting identity into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// UserIDFromContext returns the authenticated user id, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	identity := IdentityFromContext(ctx)
	if identity.IsGuest() {
		return ""
	}
	return identity.UserID.String()
}

// GuestSessionFromContext returns the guest session id, or "" for signed-in shoppers.
func GuestSessionFromContext(ctx context.Context) string {
	identity := IdentityFromContext(ctx)
	if !identity.IsGuest() {
		return ""
	}
	return identity.GuestSession
}
