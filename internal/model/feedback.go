package model

import "time"

// Feedback is a free-form note left by a visitor. Kept loose on purpose:
// the collection has no invariants beyond append ordering.
type Feedback struct {
	By   string    `json:"by,omitempty"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// FeedbackRequest is the payload for submitting feedback.
type FeedbackRequest struct {
	Text string `json:"text" binding:"required"`
}
