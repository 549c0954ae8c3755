package handler

import (
	"net/http"

	"ecoscan/internal/model"
	"ecoscan/internal/service"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles free-form feedback submissions
type FeedbackHandler struct {
	service service.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(s service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: s}
}

func (h *FeedbackHandler) PostFeedback(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	author := ""
	if sess.User != nil {
		author = sess.User.Name
	}

	fb, err := h.service.Post(c.Request.Context(), author, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items, "count": len(items)})
}

// RegisterFeedbackRoutes registers feedback routes. Anyone with a
// session may submit; only admins read the log back.
func (h *FeedbackHandler) RegisterFeedbackRoutes(rg *gin.RouterGroup, sessionMW, jwtAuthMW, authSessionMW, adminMW gin.HandlerFunc) {
	rg.POST("/feedback", sessionMW, h.PostFeedback)
	rg.GET("/feedback", jwtAuthMW, authSessionMW, adminMW, h.ListFeedback)
}
