// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

const (
	userKey    = "user"
	userIDKey  = "user_id"
	emailKey   = "user_email"
	isAdminKey = "is_admin"
)

// UserResolver loads the account behind a validated token
type UserResolver interface {
	Active(ctx context.Context, userID uint) (*user.User, error)
}

// AuthMiddleware validates the Bearer token and resolves the account it names.
// The admin flag is taken from the stored account, not from the token.
func AuthMiddleware(tokens *auth.JWTManager, users UserResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		u, err := users.Active(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthorized) {
				abortUnauthorized(c, "Invalid or expired token")
				return
			}
			log.WithError(err).WithField(userIDKey, claims.UserID).Error("failed to resolve user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Oops... our bad."})
			return
		}

		c.Set(userKey, u)
		c.Set(userIDKey, u.ID)
		c.Set(emailKey, u.Email)
		c.Set(isAdminKey, u.IsAdmin)

		c.Next()
	}
}

// AdminMiddleware ensures the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserIDFromContext(c); !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !c.GetBool(isAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext extracts user ID from gin context
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// GetUserFromContext returns the account resolved by AuthMiddleware
func GetUserFromContext(c *gin.Context) (*user.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
