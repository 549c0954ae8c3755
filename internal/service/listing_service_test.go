package service

import (
	"context"
	"testing"

	"ecoscan/internal/model"
	"ecoscan/internal/repository"
	"ecoscan/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type listingFixture struct {
	svc      ListingService
	points   PointsService
	userRepo repository.UserRepository
	listings repository.ListingRepository
}

func newListingFixture(t *testing.T, reward int) *listingFixture {
	t.Helper()
	dir := t.TempDir()

	users, err := storage.Open[model.User](dir, "users", testLogger())
	require.NoError(t, err)
	listings, err := storage.Open[model.Listing](dir, "listings", testLogger())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(users)
	listingRepo := repository.NewListingRepository(listings)
	points := NewPointsService(userRepo)

	return &listingFixture{
		svc:      NewListingService(listingRepo, userRepo, points, reward, testLogger()),
		points:   points,
		userRepo: userRepo,
		listings: listingRepo,
	}
}

func (f *listingFixture) seedUser(t *testing.T, phone, name, area string, points int) {
	t.Helper()
	require.NoError(t, f.userRepo.Create(context.Background(), model.User{
		Phone:        phone,
		Name:         name,
		Area:         area,
		PasswordHash: "x",
		Points:       points,
		Role:         model.RoleMember,
	}))
}

func TestCreate_CreditsOwnerAtomically(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	listing, balance, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{
		Name:     "Bicycle",
		Category: "Sports",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, "Ahmad", listing.OwnerName)
	assert.Equal(t, "Hawalli", listing.Area)
	assert.Equal(t, 10, balance)

	got, err := f.points.Balance(ctx, "96512345678")
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	found, err := f.listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestCreate_UnknownOwnerLeavesNoListing(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()

	_, _, err := f.svc.Create(ctx, "96599999999", model.CreateListingRequest{
		Name:     "Bicycle",
		Category: "Sports",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, err := f.svc.Search(ctx, model.ListingFilters{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_UnknownCategory(t *testing.T) {
	f := newListingFixture(t, 10)
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	_, _, err := f.svc.Create(context.Background(), "96512345678", model.CreateListingRequest{
		Name:     "Bicycle",
		Category: "Vehicles",
	})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCreate_ConcurrentCreatesLoseNothing(t *testing.T) {
	const n = 20

	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{
				Name:     "Bicycle",
				Category: "Sports",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	all, err := f.svc.Search(ctx, model.ListingFilters{})
	require.NoError(t, err)
	assert.Len(t, all, n)

	balance, err := f.points.Balance(ctx, "96512345678")
	require.NoError(t, err)
	assert.Equal(t, n*10, balance)
}

func TestDelete_AdminOnly(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	listing, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{
		Name:     "Bicycle",
		Category: "Sports",
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, listing.ID, model.RoleMember)
	assert.ErrorIs(t, err, ErrForbidden)

	// Store unchanged after the forbidden attempt.
	_, err = f.svc.GetByID(ctx, listing.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, listing.ID, model.RoleAdmin))
	_, err = f.svc.GetByID(ctx, listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestDelete_OtherListingsUntouched(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	keep, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{Name: "Sofa", Category: "Furniture"})
	require.NoError(t, err)
	_, err = f.svc.PostComment(ctx, keep.ID, "Badr", "still available?")
	require.NoError(t, err)

	drop, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{Name: "Bicycle", Category: "Sports"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, drop.ID, model.RoleAdmin))

	kept, err := f.svc.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	require.Len(t, kept.Comments, 1)
	assert.Equal(t, "still available?", kept.Comments[0].Text)
}

func TestDelete_Missing(t *testing.T) {
	f := newListingFixture(t, 10)
	err := f.svc.Delete(context.Background(), "no-such-id", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

// Points stay with the member when an admin removes the listing.
func TestDelete_PointsNotReverted(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	listing, balance, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{
		Name:     "Bicycle",
		Category: "Sports",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	require.NoError(t, f.svc.Delete(ctx, listing.ID, model.RoleAdmin))

	board, err := f.points.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Ahmad", board[0].Name)
	assert.Equal(t, 10, board[0].Points)
}

func TestPostComment_ArrivalOrder(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)

	listing, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{Name: "Bicycle", Category: "Sports"})
	require.NoError(t, err)

	for _, text := range []string{"first", "second", "third"} {
		_, err := f.svc.PostComment(ctx, listing.ID, "Badr", text)
		require.NoError(t, err)
	}

	read := func() []string {
		got, err := f.svc.GetByID(ctx, listing.ID)
		require.NoError(t, err)
		var texts []string
		for _, cm := range got.Comments {
			texts = append(texts, cm.Text)
		}
		return texts
	}

	first := read()
	assert.Equal(t, []string{"first", "second", "third"}, first)
	// A second read without intervening writes is identical.
	assert.Equal(t, first, read())
}

func TestPostComment_UnknownListing(t *testing.T) {
	f := newListingFixture(t, 10)
	_, err := f.svc.PostComment(context.Background(), "no-such-id", "Badr", "hello")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestSearch_Filters(t *testing.T) {
	f := newListingFixture(t, 10)
	ctx := context.Background()
	f.seedUser(t, "96512345678", "Ahmad", "Hawalli", 0)
	f.seedUser(t, "96587654321", "Noura", "Jahra", 0)

	_, _, err := f.svc.Create(ctx, "96512345678", model.CreateListingRequest{Name: "Mountain Bicycle", Category: "Sports"})
	require.NoError(t, err)
	_, _, err = f.svc.Create(ctx, "96587654321", model.CreateListingRequest{Name: "Bookshelf", Category: "Furniture"})
	require.NoError(t, err)

	// Case-insensitive substring on name.
	got, err := f.svc.Search(ctx, model.ListingFilters{Query: "bicycle"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mountain Bicycle", got[0].Name)

	// Substring on area.
	got, err = f.svc.Search(ctx, model.ListingFilters{Query: "jahra"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bookshelf", got[0].Name)

	// Category filter.
	cat := "Furniture"
	got, err = f.svc.Search(ctx, model.ListingFilters{Category: &cat})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bookshelf", got[0].Name)

	// Area filter.
	area := "Hawalli"
	got, err = f.svc.Search(ctx, model.ListingFilters{Area: &area})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mountain Bicycle", got[0].Name)

	// No filters returns everything.
	got, err = f.svc.Search(ctx, model.ListingFilters{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
