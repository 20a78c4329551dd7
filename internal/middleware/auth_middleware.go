package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const currentUserKey = "current_user"

// UserLookup resolves the subject of a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate resolves the Bearer token, if any, to a stored user. Requests
// without an Authorization header continue anonymously; a header that does
// not yield a live user is rejected with 401.
func Authenticate(jwtSecret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// 2. Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			abort(c, http.StatusUnauthorized, "not_authenticated", "Invalid authorization format. Use: Bearer <token>")
			return
		}

		// 3. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			logger.Log.Debug("Rejected token", zap.Error(err))
			abort(c, http.StatusUnauthorized, "not_authenticated", "Invalid or expired token")
			return
		}

		// 4. Load the user; role changes and deletions take effect immediately
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Log.Error("Failed to load token subject",
				zap.Uint("user_id", claims.UserID),
				zap.Error(err),
			)
			abort(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}
		if user == nil {
			abort(c, http.StatusUnauthorized, "not_authenticated", "User not found")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abort(c, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// RequireAdmin lets through admins and superusers only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checkAdmin(c) {
			return
		}
		c.Next()
	}
}

// AdminOrReadOnly lets anyone read and only admins write.
func AdminOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if !checkAdmin(c) {
			return
		}
		c.Next()
	}
}

// AuthenticatedOrReadOnly lets anyone read and any signed-in user write.
// Per-object checks stay with the service layer.
func AuthenticatedOrReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isSafeMethod(c.Request.Method) && CurrentUser(c) == nil {
			abort(c, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

func checkAdmin(c *gin.Context) bool {
	user := CurrentUser(c)
	if user == nil {
		abort(c, http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided")
		return false
	}
	if !user.IsAdmin() {
		logger.Log.Warn("Admin access denied",
			zap.Uint("user_id", user.ID),
			zap.String("path", c.Request.URL.Path),
		)
		abort(c, http.StatusForbidden, "permission_denied", "Admin access required")
		return false
	}
	return true
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// abort writes the API error body and stops the chain.
func abort(c *gin.Context, status int, reason, detail string) {
	c.AbortWithStatusJSON(status, gin.H{
		"reason": reason,
		"detail": detail,
	})
}
