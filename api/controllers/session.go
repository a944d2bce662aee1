package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/saiembroidery/storefront-backend/api/middleware"
	"github.com/saiembroidery/storefront-backend/api/responses"
	"github.com/saiembroidery/storefront-backend/internal/cart"
	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
	"github.com/saiembroidery/storefront-backend/pkg/logger"
)

// Fallback when the token carries no expiry; matches the longest access
// token TTL the session provider hands out.
const sessionRevocationTTL = 24 * time.Hour

// SessionRevoker denylists a token id until the token would have expired.
type SessionRevoker interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SessionRevokedKey(jti string) string
}

// SignOut drops the user's in-memory cart session and revokes the bearer
// token so it stops authenticating. The persistent cart survives and is
// rehydrated on the next sign-in.
func SignOut(mgr *cart.Manager, sessions SessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mgr == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
			return
		}
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mgr.SignedOut(userID)

		if sessions != nil {
			if jti := middleware.TokenIDFromContext(r.Context()); jti != "" {
				ttl := sessionRevocationTTL
				if exp, ok := middleware.TokenExpiryFromContext(r.Context()); ok {
					if remaining := time.Until(exp); remaining > 0 {
						ttl = remaining
					}
				}
				if err := sessions.Set(r.Context(), sessions.SessionRevokedKey(jti), "revoked", ttl); err != nil && logg != nil {
					logg.Warn(r.Context(), fmt.Sprintf("token %s not revoked on sign-out: %v", jti, err))
				}
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}
