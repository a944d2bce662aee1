package middleware

import (
	"context"
	"time"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxUserRole    contextKey = "user_role"
	ctxTokenID     contextKey = "token_id"
	ctxTokenExpiry contextKey = "token_expiry"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// RoleFromContext returns the role claim seeded by the auth middleware.
func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserRole).(string); ok {
		return v
	}
	return ""
}

// WithTokenInfo injects the bearer token id and expiry into the context.
func WithTokenInfo(ctx context.Context, jti string, expiry time.Time) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxTokenID, jti)
	return context.WithValue(ctx, ctxTokenExpiry, expiry)
}

// TokenIDFromContext returns the bearer token's JTI, if one was seeded.
func TokenIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTokenID).(string); ok {
		return v
	}
	return ""
}

// TokenExpiryFromContext returns the bearer token's expiry, if one was seeded.
func TokenExpiryFromContext(ctx context.Context) (time.Time, bool) {
	if ctx == nil {
		return time.Time{}, false
	}
	v, ok := ctx.Value(ctxTokenExpiry).(time.Time)
	return v, ok
}
