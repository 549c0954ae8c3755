package repository

import (
	"context"

	"ecoscan/internal/model"
	"ecoscan/internal/storage"
)

// FeedbackRepository defines operations for the free-form feedback log
type FeedbackRepository interface {
	Append(ctx context.Context, fb model.Feedback) error
	All(ctx context.Context) ([]model.Feedback, error)
}

type feedbackRepository struct {
	feedback *storage.Collection[model.Feedback]
}

// NewFeedbackRepository creates a new FeedbackRepository over the feedback collection
func NewFeedbackRepository(feedback *storage.Collection[model.Feedback]) FeedbackRepository {
	return &feedbackRepository{feedback: feedback}
}

func (r *feedbackRepository) Append(_ context.Context, fb model.Feedback) error {
	return r.feedback.Update(func(records []model.Feedback) ([]model.Feedback, error) {
		return append(records, fb), nil
	})
}

func (r *feedbackRepository) All(_ context.Context) ([]model.Feedback, error) {
	return r.feedback.Snapshot(), nil
}
