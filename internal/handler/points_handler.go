package handler

import (
	"errors"
	"net/http"

	"ecoscan/internal/service"

	"github.com/gin-gonic/gin"
)

// PointsHandler exposes balances and the leaderboard
type PointsHandler struct {
	service service.PointsService
}

// NewPointsHandler creates a new PointsHandler
func NewPointsHandler(s service.PointsService) *PointsHandler {
	return &PointsHandler{service: s}
}

func (h *PointsHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *PointsHandler) GetBalance(c *gin.Context) {
	phone, err := getAuthPhone(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.service.Balance(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"phone": phone, "balance": balance})
}

// RegisterPointsRoutes registers leaderboard and balance routes
func (h *PointsHandler) RegisterPointsRoutes(rg *gin.RouterGroup, jwtAuthMW, authSessionMW gin.HandlerFunc) {
	rg.GET("/leaderboard", jwtAuthMW, authSessionMW, h.GetLeaderboard)
	rg.GET("/me/balance", jwtAuthMW, authSessionMW, h.GetBalance)
}
