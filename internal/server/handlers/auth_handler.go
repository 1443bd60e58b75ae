package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/service/auth"
	"github.com/agrovida/hidrofresa/internal/service/session"
)

// AuthHandler exposes sign-in, registration and password reset.
type AuthHandler struct {
	authSvc  *auth.Service
	sessions *session.Store
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP adapter for authentication.
func NewAuthHandler(authSvc *auth.Service, sessions *session.Store, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authSvc: authSvc, sessions: sessions, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials, resolves the role and returns a session
// token together with the resolved profile.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, user, err := h.authSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case errors.Is(err, auth.ErrAccountArchived):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is archived"})
		return
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to sign in"})
		return
	}

	role := h.sessions.HandleSignIn(c.Request.Context(), user.ID, user.Email)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  role,
		},
	})
}

// Register creates an account with the default basic role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	id, err := h.authSvc.CreateAccount(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed email"})
		return
	case err != nil:
		h.logger.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RequestPasswordReset issues a reset token for the account. The response
// is identical whether the email exists or not.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if _, err := h.authSvc.SendPasswordReset(c.Request.Context(), req.Email); err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		h.logger.Error("password reset failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to process reset"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "reset requested"})
}

// ConfirmPasswordReset consumes a reset token and sets a new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and newPassword are required"})
		return
	}

	err := h.authSvc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		return
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired reset token"})
		return
	case err != nil:
		h.logger.Error("password reset confirmation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to reset password"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Logout clears the caller's tracked session. Tokens stay valid until
// expiry; the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.HandleSignOut(CurrentUser(c).ID)
	c.Status(http.StatusNoContent)
}
