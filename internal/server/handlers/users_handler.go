package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/service/session"
)

// UsersHandler exposes the admin user management screen.
type UsersHandler struct {
	sessions *session.Store
	logger   *zap.Logger
}

// NewUsersHandler constructs the HTTP adapter for user administration.
func NewUsersHandler(sessions *session.Store, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{sessions: sessions, logger: logger}
}

// List returns every profile, archived ones included.
func (h *UsersHandler) List(c *gin.Context) {
	users, err := h.sessions.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("user listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ChangeRole promotes or demotes a user.
func (h *UsersHandler) ChangeRole(c *gin.Context) {
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	err := h.sessions.ChangeRole(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Role)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		h.logger.Error("role change failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to change role"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetActive archives or reactivates a user. An admin cannot archive its
// own account.
func (h *UsersHandler) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active flag is required"})
		return
	}

	actor := CurrentUser(c)
	targetID := c.Param("id")
	if targetID == actor.ID && !*req.Active {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot archive your own account"})
		return
	}

	if err := h.sessions.SetActive(c.Request.Context(), actor.ID, targetID, *req.Active); err != nil {
		h.logger.Error("user activation change failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update user"})
		return
	}
	c.Status(http.StatusNoContent)
}
