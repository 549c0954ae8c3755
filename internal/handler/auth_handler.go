package handler

import (
	"errors"
	"net/http"

	"ecoscan/internal/middleware"
	"ecoscan/internal/model"
	"ecoscan/internal/service"
	"ecoscan/internal/session"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles signup, login, password reset and logout
type AuthHandler struct {
	service  service.AuthService
	sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{service: s, sessions: sessions}
}

// currentSession pulls the snapshot placed by the session middleware.
func currentSession(c *gin.Context) (session.Session, bool) {
	val, exists := c.Get(middleware.SessionKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not resolved, ensure session middleware runs first"})
		return session.Session{}, false
	}
	sess, ok := val.(session.Session)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid session type in context"})
		return session.Session{}, false
	}
	return sess, true
}

// requireView rejects operations invoked from the wrong view with a 400.
func requireView(c *gin.Context, sess session.Session, view session.View) bool {
	if sess.View != view {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Operation not available from view '" + string(sess.View) + "'"})
		return false
	}
	return true
}

func (h *AuthHandler) Signup(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok || !requireView(c, sess, session.ViewSignup) {
		return
	}

	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, token, err := h.service.Signup(c.Request.Context(), sess.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicatePhone):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidArea):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign up"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signed up successfully",
		"phone":   user.Phone,
		"name":    user.Name,
		"area":    user.Area,
		"points":  user.Points,
		"role":    user.Role,
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok || !requireView(c, sess, session.ViewLogin) {
		return
	}

	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), sess.ID, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"phone":   user.Phone,
		"name":    user.Name,
		"role":    user.Role,
		"points":  user.Points,
		"token":   token,
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok || !requireView(c, sess, session.ViewForgot) {
		return
	}

	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Phone, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrPhoneNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	idVal, _ := c.Get(middleware.SessionIDKey)
	id, _ := idVal.(string)
	if _, err := h.sessions.Logout(id); err != nil && !errors.Is(err, session.ErrExpired) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RegisterAuthRoutes registers auth routes. Signup, login and reset run
// on a pre-auth session; logout requires an authenticated one.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, sessionMW, jwtAuthMW, authSessionMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", sessionMW, h.Signup)
		authGroup.POST("/login", sessionMW, h.Login)
		authGroup.POST("/forgot", sessionMW, h.ResetPassword)
		authGroup.POST("/logout", jwtAuthMW, authSessionMW, h.Logout)
	}
}
