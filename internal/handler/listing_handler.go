package handler

import (
	"errors"
	"net/http"

	"ecoscan/internal/middleware"
	"ecoscan/internal/model"
	"ecoscan/internal/service"

	"github.com/gin-gonic/gin"
)

// ListingHandler handles listing and comment requests
type ListingHandler struct {
	service service.ListingService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(s service.ListingService) *ListingHandler {
	return &ListingHandler{service: s}
}

// Helper to get the authenticated user's canonical phone from context
func getAuthPhone(c *gin.Context) (string, error) {
	phoneVal, exists := c.Get(middleware.AuthPhoneKey)
	if !exists {
		return "", errors.New("user phone not found in context")
	}
	phone, ok := phoneVal.(string)
	if !ok {
		return "", errors.New("invalid user phone type in context")
	}
	return phone, nil
}

// Helper to get the authenticated user's role from context
func getAuthRole(c *gin.Context) (string, error) {
	roleVal, exists := c.Get(middleware.AuthRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleVal.(string)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	phone, err := getAuthPhone(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, balance, err := h.service.Create(c.Request.Context(), phone, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"listing": listing,
		"balance": balance,
	})
}

func (h *ListingHandler) SearchListings(c *gin.Context) {
	var filters model.ListingFilters
	filters.Query = c.Query("q")
	if categoryParam := c.Query("category"); categoryParam != "" {
		filters.Category = &categoryParam
	}
	if areaParam := c.Query("area"); areaParam != "" {
		filters.Area = &areaParam
	}

	listings, err := h.service.Search(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	role, err := getAuthRole(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), role); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

func (h *ListingHandler) PostComment(c *gin.Context) {
	author := c.GetString(middleware.AuthNameKey)
	if author == "" {
		// Admin backdoor sessions carry no member record.
		phone, err := getAuthPhone(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		author = phone
	}

	var req model.PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.service.PostComment(c.Request.Context(), c.Param("id"), author, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post comment"})
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// RegisterListingRoutes registers listing routes. Every route requires
// an authenticated session; deletion additionally requires the admin
// role.
func (h *ListingHandler) RegisterListingRoutes(rg *gin.RouterGroup, jwtAuthMW, authSessionMW, adminMW gin.HandlerFunc) {
	listingGroup := rg.Group("/listings")
	listingGroup.Use(jwtAuthMW, authSessionMW)
	{
		listingGroup.POST("", h.CreateListing)
		listingGroup.GET("", h.SearchListings)
		listingGroup.GET("/:id", h.GetListing)
		listingGroup.POST("/:id/comments", h.PostComment)
		listingGroup.DELETE("/:id", adminMW, h.DeleteListing)
	}
}
