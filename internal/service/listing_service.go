package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrForbidden       = errors.New("forbidden: only an admin may perform this action")
	ErrInvalidCategory = errors.New("unknown category")
)

// ListingService provides listing creation, deletion, search and the
// per-listing comment thread.
type ListingService interface {
	Create(ctx context.Context, ownerPhone string, req model.CreateListingRequest) (*model.Listing, int, error)
	Delete(ctx context.Context, id, requesterRole string) error
	Search(ctx context.Context, filters model.ListingFilters) ([]model.Listing, error)
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	PostComment(ctx context.Context, id, author, text string) (*model.Listing, error)
}

type listingService struct {
	listingRepo  repository.ListingRepository
	userRepo     repository.UserRepository
	points       PointsService
	rewardPoints int
	logger       *logrus.Logger

	// createMu serializes the listing-insert + points-credit pair so the
	// two effects land together or not at all.
	createMu sync.Mutex
}

// NewListingService creates a new ListingService
func NewListingService(listingRepo repository.ListingRepository, userRepo repository.UserRepository, points PointsService, rewardPoints int, logger *logrus.Logger) ListingService {
	return &listingService{
		listingRepo:  listingRepo,
		userRepo:     userRepo,
		points:       points,
		rewardPoints: rewardPoints,
		logger:       logger,
	}
}

// Create posts a new listing and credits the owner's reward points as a
// single unit: the owner is resolved first, then the listing is
// inserted, then the credit applies. If the credit cannot be written
// the listing insert is rolled back, so no listing ever exists without
// its credit and no credit without its listing. Returns the listing and
// the owner's new balance.
func (s *listingService) Create(ctx context.Context, ownerPhone string, req model.CreateListingRequest) (*model.Listing, int, error) {
	if !model.ValidCategory(req.Category) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	owner, err := s.userRepo.FindByPhone(ctx, ownerPhone)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve owner: %w", err)
	}
	if owner == nil {
		return nil, 0, ErrUserNotFound
	}

	listing := model.Listing{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		OwnerPhone:  owner.Phone,
		OwnerName:   owner.Name,
		Area:        owner.Area,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now(),
	}

	if err := s.listingRepo.Insert(ctx, listing); err != nil {
		return nil, 0, fmt.Errorf("failed to insert listing: %w", err)
	}

	balance, err := s.points.Credit(ctx, owner.Phone, s.rewardPoints)
	if err != nil {
		// Roll the listing back; a listing without its credit must not
		// become visible as a durable outcome.
		if derr := s.listingRepo.Delete(ctx, listing.ID); derr != nil {
			s.logger.WithFields(logrus.Fields{
				"listing": listing.ID,
				"owner":   owner.Phone,
			}).WithError(derr).Error("failed to roll back listing after credit failure")
		}
		return nil, 0, fmt.Errorf("failed to credit reward points: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"listing": listing.ID,
		"owner":   owner.Phone,
		"balance": balance,
	}).Info("listing created")
	return &listing, balance, nil
}

// Delete removes a listing. Only the admin role may delete; reward
// points already credited for the listing are not reverted.
func (s *listingService) Delete(ctx context.Context, id, requesterRole string) error {
	if requesterRole != model.RoleAdmin {
		return ErrForbidden
	}
	if err := s.listingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	s.logger.WithField("listing", id).Info("listing deleted by admin")
	return nil
}

// Search filters listings by query, category and area, newest first
func (s *listingService) Search(ctx context.Context, filters model.ListingFilters) ([]model.Listing, error) {
	listings, err := s.listingRepo.Search(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return listings, nil
}

// GetByID returns a single listing with its comment thread
func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// PostComment appends to the listing's thread and returns the updated
// listing.
func (s *listingService) PostComment(ctx context.Context, id, author, text string) (*model.Listing, error) {
	comment := model.Comment{
		By:   author,
		Text: text,
		At:   time.Now(),
	}
	if err := s.listingRepo.AppendComment(ctx, id, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to append comment: %w", err)
	}
	return s.GetByID(ctx, id)
}
