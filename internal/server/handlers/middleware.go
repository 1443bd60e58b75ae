package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/internal/service/auth"
)

const principalKey = "principal"

// TokenParser validates a bearer token and returns the subject user id.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// AuthRequired validates the bearer token, loads the user profile and
// stores it on the request context. Archived accounts are rejected even
// when their token is still within its validity window.
func AuthRequired(parser TokenParser, docs mongodb.Store, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := parser.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		var user models.User
		if err := docs.Get(c.Request.Context(), models.CollectionUsers, userID, &user); err != nil {
			logger.Warn("token subject has no profile", zap.String("user", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is archived"})
			return
		}
		user.ID = userID

		c.Set(principalKey, user)
		c.Next()
	}
}

// RequireAdmin rejects requests whose principal is not an administrator.
// It must run after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated principal set by AuthRequired.
func CurrentUser(c *gin.Context) models.User {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.User{}
	}
	user, _ := v.(models.User)
	return user
}

var _ TokenParser = (*auth.Service)(nil)
