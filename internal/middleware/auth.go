package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tablero-dev/tablero/internal/auth"
	"github.com/tablero-dev/tablero/internal/constants"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// Identify extracts and verifies the bearer token, attaching the user ID to
// both the gin context and the request context. It never aborts: operations
// that do not need authentication (login) must pass through, and resolvers
// treat a missing identity as unauthorized themselves.
func Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := identityFromHeader(c.GetHeader("Authorization")); ok {
			c.Set(constants.ContextKeyUserID, userID)
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

func identityFromHeader(authHeader string) (uint64, bool) {
	if authHeader == "" {
		return 0, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	return IdentityFromToken(parts[1])
}

// IdentityFromToken verifies a raw token string and returns the embedded
// user ID. Verification is purely cryptographic; no user record is loaded.
func IdentityFromToken(tokenString string) (uint64, bool) {
	token, err := auth.VerifyJWT(tokenString)
	if err != nil {
		return 0, false
	}

	userID, err := auth.UserIDFromToken(token)
	if err != nil {
		return 0, false
	}

	return userID, true
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(uint64)
	return userID, ok
}
