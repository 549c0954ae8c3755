package service

import (
	"context"
	"fmt"
	"time"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"
)

// FeedbackService records free-form visitor feedback
type FeedbackService interface {
	Post(ctx context.Context, author, text string) (*model.Feedback, error)
	List(ctx context.Context) ([]model.Feedback, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(feedbackRepo repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedbackRepo: feedbackRepo}
}

func (s *feedbackService) Post(ctx context.Context, author, text string) (*model.Feedback, error) {
	fb := model.Feedback{
		By:   author,
		Text: text,
		At:   time.Now(),
	}
	if err := s.feedbackRepo.Append(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	return &fb, nil
}

func (s *feedbackService) List(ctx context.Context) ([]model.Feedback, error) {
	items, err := s.feedbackRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}
