package handler

import (
	"errors"
	"net/http"

	"ecoscan/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler manages session lifecycle and view navigation
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start opens a fresh anonymous session on the login view.
func (h *SessionHandler) Start(c *gin.Context) {
	sess := h.sessions.Start()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"view":       sess.View,
	})
}

// Navigate applies an explicit view transition ("sign up", "forgot
// password", "back").
func (h *SessionHandler) Navigate(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req struct {
		Target session.View `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !session.ValidView(req.Target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown view"})
		return
	}

	updated, err := h.sessions.Navigate(sess.ID, req.Target)
	if err != nil {
		if errors.Is(err, session.ErrBadTransition) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to navigate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": updated.View})
}

// RegisterSessionRoutes registers session routes
func (h *SessionHandler) RegisterSessionRoutes(rg *gin.RouterGroup, sessionMW gin.HandlerFunc) {
	sessionGroup := rg.Group("/session")
	{
		sessionGroup.POST("", h.Start)
		sessionGroup.POST("/navigate", sessionMW, h.Navigate)
	}
}
