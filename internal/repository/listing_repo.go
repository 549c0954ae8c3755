package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ecoscan/internal/model"
	"ecoscan/internal/storage"
)

// ListingRepository defines operations for listing records
type ListingRepository interface {
	Insert(ctx context.Context, listing model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	Delete(ctx context.Context, id string) error
	AppendComment(ctx context.Context, id string, comment model.Comment) error
	Search(ctx context.Context, filters model.ListingFilters) ([]model.Listing, error)
}

type listingRepository struct {
	listings *storage.Collection[model.Listing]
}

// NewListingRepository creates a new ListingRepository over the listings collection
func NewListingRepository(listings *storage.Collection[model.Listing]) ListingRepository {
	return &listingRepository{listings: listings}
}

// Insert appends a new listing. The id uniqueness check runs under the
// collection lock so near-simultaneous creations cannot collide.
func (r *listingRepository) Insert(_ context.Context, listing model.Listing) error {
	return r.listings.Update(func(records []model.Listing) ([]model.Listing, error) {
		for _, l := range records {
			if l.ID == listing.ID {
				return nil, fmt.Errorf("listing %s: %w", listing.ID, ErrDuplicate)
			}
		}
		return append(records, listing), nil
	})
}

// FindByID retrieves a listing by id. Returns (nil, nil) when absent.
func (r *listingRepository) FindByID(_ context.Context, id string) (*model.Listing, error) {
	for _, l := range r.listings.Snapshot() {
		if l.ID == id {
			listing := l
			return &listing, nil
		}
	}
	return nil, nil
}

// Delete removes exactly the listing with the given id, comments and
// all. Other listings are untouched.
func (r *listingRepository) Delete(_ context.Context, id string) error {
	return r.listings.Update(func(records []model.Listing) ([]model.Listing, error) {
		for i, l := range records {
			if l.ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	})
}

// AppendComment adds a comment to the listing's thread. Appends are
// serialized by the collection writer lock, so concurrent comments on
// the same listing all land, in arrival order.
func (r *listingRepository) AppendComment(_ context.Context, id string, comment model.Comment) error {
	return r.listings.Update(func(records []model.Listing) ([]model.Listing, error) {
		for i, l := range records {
			if l.ID == id {
				// Copy the thread so snapshots handed to readers
				// never share a backing array with a writer.
				thread := make([]model.Comment, 0, len(l.Comments)+1)
				thread = append(thread, l.Comments...)
				records[i].Comments = append(thread, comment)
				return records, nil
			}
		}
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	})
}

// Search returns listings matching the filters, most recent first. It is
// a pure function of the current collection state.
func (r *listingRepository) Search(_ context.Context, filters model.ListingFilters) ([]model.Listing, error) {
	query := strings.ToLower(strings.TrimSpace(filters.Query))

	var out []model.Listing
	for _, l := range r.listings.Snapshot() {
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Name), query) &&
			!strings.Contains(strings.ToLower(l.Area), query) {
			continue
		}
		if filters.Category != nil && l.Category != *filters.Category {
			continue
		}
		if filters.Area != nil && l.Area != *filters.Area {
			continue
		}
		out = append(out, l)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
