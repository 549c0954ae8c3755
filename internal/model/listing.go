package model

import "time"

// Categories lists the item categories accepted for a listing.
var Categories = []string{
	"Electronics",
	"Furniture",
	"Clothing",
	"Books",
	"Appliances",
	"Toys",
	"Sports",
	"Other",
}

// ValidCategory reports whether cat is one of the known categories.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Comment is a single message on a listing's thread. Threads are
// append-only; ordering is arrival order.
type Comment struct {
	By   string    `json:"by"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Listing is an item posted for swap. OwnerName and Area are snapshots
// taken at creation time, not live references to the owner record. A
// listing is immutable after creation except for comment appends, and
// only an admin may delete it.
type Listing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"cat"`
	Description *string   `json:"desc,omitempty"`
	OwnerPhone  string    `json:"user"`
	OwnerName   string    `json:"user_name"`
	Area        string    `json:"area"`
	ImageURL    *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"date"`
	Comments    []Comment `json:"messages"`
}

// CreateListingRequest is the payload for posting a new listing.
type CreateListingRequest struct {
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// PostCommentRequest is the payload for appending to a listing's thread.
type PostCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListingFilters contains filter parameters for listing searches. Query
// matches name and area case-insensitively as a substring; Category and
// Area are exact filters.
type ListingFilters struct {
	Query    string
	Category *string
	Area     *string
}
