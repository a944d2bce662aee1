package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/saiembroidery/storefront-backend/api/responses"
	pkgAuth "github.com/saiembroidery/storefront-backend/pkg/auth"
	"github.com/saiembroidery/storefront-backend/pkg/config"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// SessionStore answers whether a token id has been revoked by sign-out.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	SessionRevokedKey(jti string) string
}

// Auth validates a bearer token and seeds the request context with the claims.
// When a session store is provided, tokens whose id was revoked by a sign-out
// are rejected even before they expire.
func Auth(cfg config.JWTConfig, sessions SessionStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if sessions != nil && claims.ID != "" {
				_, err := sessions.Get(r.Context(), sessions.SessionRevokedKey(claims.ID))
				switch {
				case err == nil:
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is no longer active"))
					return
				case !errors.Is(err, goredis.Nil):
					// an unreachable session store must not lock every
					// shopper out; the token itself is still valid
					if logg != nil {
						logg.Warn(r.Context(), fmt.Sprintf("session revocation check failed: %v", err))
					}
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxUserRole, claims.Role)
			ctx = context.WithValue(ctx, ctxTokenID, claims.ID)
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, ctxTokenExpiry, claims.ExpiresAt.Time)
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperator rejects requests whose token does not carry the operator
// role. Shopper tokens have no role claim.
func RequireOperator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != pkgAuth.RoleOperator {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "operator access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
