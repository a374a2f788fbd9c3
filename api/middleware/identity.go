package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// GuestSessionHeader carries the anonymous browser session that owns a guest cart.
const GuestSessionHeader = "X-Guest-Session"

const maxGuestSessionLen = 128

// Identity resolves the acting shopper. A bearer token is optional, but when present it
// must be valid. Requests without one act as the guest named by GuestSessionHeader.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(r.Header.Get("Authorization"))

			var identity pkgAuth.Identity
			if raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				identity = pkgAuth.FromClaims(claims)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
			} else {
				session := strings.TrimSpace(r.Header.Get(GuestSessionHeader))
				if len(session) > maxGuestSessionLen {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest session is too long"))
					return
				}
				identity = pkgAuth.Guest(session)
				if logg != nil && session != "" {
					ctx = logg.WithGuestSession(ctx, session)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// RequireUser rejects guests.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()).IsGuest() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
