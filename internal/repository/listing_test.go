package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"hearth/internal/database"
	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: database.NewGormLogger()})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsAdmin:  isAdmin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestListing(t *testing.T, db *gorm.DB, ownerID uint, mutate ...func(*models.Listing)) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		OwnerID:      ownerID,
		Name:         "Cozy cottage",
		Description:  "Two bedrooms near the park",
		Address:      "12 Elm Street",
		Type:         models.ListingTypeRent,
		Bedrooms:     2,
		Bathrooms:    1,
		RegularPrice: 1200,
		ImageURLs:    []string{"https://example.com/1.jpg"},
	}
	for _, m := range mutate {
		m(listing)
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func approved(l *models.Listing)  { l.Approved = true }
func rejected(l *models.Listing)  { l.Approved = false; l.RejectionReason = "blurry photos" }
func withName(name string) func(*models.Listing) {
	return func(l *models.Listing) { l.Name = name }
}

func TestListingRepository_FindVisibility(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	other := createTestUser(t, db, "other", false)

	createTestListing(t, db, owner.ID, approved, withName("approved one"))
	createTestListing(t, db, owner.ID, withName("pending one"))
	createTestListing(t, db, owner.ID, rejected, withName("rejected one"))
	createTestListing(t, db, other.ID, approved, withName("approved other"))

	t.Run("anonymous sees approved only", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 2)
		for _, l := range listings {
			assert.True(t, l.Approved)
		}
	})

	t.Run("approved filter is ignored for non-admins", func(t *testing.T) {
		pending := false
		listings, err := repo.Find(ctx,
			ListingFilter{Viewer: models.Viewer{ID: other.ID}, Approved: &pending},
			ListingSort{}, 0, 0)
		require.NoError(t, err)
		for _, l := range listings {
			assert.True(t, l.Approved)
		}
	})

	t.Run("owner filter on self includes all states", func(t *testing.T) {
		listings, err := repo.Find(ctx,
			ListingFilter{Viewer: models.Viewer{ID: owner.ID}, OwnerID: owner.ID},
			ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 3)
	})

	t.Run("owner filter on someone else stays approved-only", func(t *testing.T) {
		listings, err := repo.Find(ctx,
			ListingFilter{Viewer: models.Viewer{ID: other.ID}, OwnerID: owner.ID},
			ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 1)
		assert.Equal(t, "approved one", listings[0].Name)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		listings, err := repo.Find(ctx,
			ListingFilter{Viewer: models.Viewer{ID: 999, IsAdmin: true}},
			ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 4)
	})

	t.Run("admin can filter by approval state", func(t *testing.T) {
		pending := false
		listings, err := repo.Find(ctx,
			ListingFilter{Viewer: models.Viewer{ID: 999, IsAdmin: true}, Approved: &pending},
			ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 2)
		for _, l := range listings {
			assert.False(t, l.Approved)
		}
	})

	t.Run("count agrees with find", func(t *testing.T) {
		filter := ListingFilter{Viewer: models.Viewer{ID: 999, IsAdmin: true}}
		listings, err := repo.Find(ctx, filter, ListingSort{}, 100, 0)
		require.NoError(t, err)
		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(len(listings)), count)
	})
}

func TestListingRepository_FindFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	createTestListing(t, db, owner.ID, approved, func(l *models.Listing) {
		l.Name = "Sunny Loft"
		l.Type = models.ListingTypeSale
		l.Offer = true
		l.DiscountPrice = 900
		l.Furnished = true
	})
	createTestListing(t, db, owner.ID, approved, func(l *models.Listing) {
		l.Name = "Quiet House"
		l.Parking = true
	})

	t.Run("offer", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{Offer: true}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Sunny Loft", listings[0].Name)
	})

	t.Run("furnished and parking", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{Furnished: true}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)

		listings, err = repo.Find(ctx, ListingFilter{Parking: true}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Quiet House", listings[0].Name)
	})

	t.Run("type", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{Type: models.ListingTypeSale}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Sunny Loft", listings[0].Name)

		listings, err = repo.Find(ctx, ListingFilter{Type: "all"}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 2)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{SearchTerm: "sunny"}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Sunny Loft", listings[0].Name)
	})

	t.Run("no matches returns empty non-nil slice", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{SearchTerm: "zeppelin"}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.NotNil(t, listings)
		assert.Len(t, listings, 0)
	})
}

func TestListingRepository_SortAndPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	for i := 0; i < 12; i++ {
		price := float64(1000 + i*100)
		created := time.Now().Add(-time.Duration(i) * time.Hour)
		createTestListing(t, db, owner.ID, approved, func(l *models.Listing) {
			l.Name = fmt.Sprintf("listing %02d", i)
			l.RegularPrice = price
			l.CreatedAt = created
		})
	}

	t.Run("default limit is nine", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{}, ListingSort{}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, listings, DefaultBrowseLimit)
	})

	t.Run("default sort is newest first", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{}, ListingSort{}, 3, 0)
		require.NoError(t, err)
		require.Len(t, listings, 3)
		assert.True(t, listings[0].CreatedAt.After(listings[1].CreatedAt))
		assert.True(t, listings[1].CreatedAt.After(listings[2].CreatedAt))
	})

	t.Run("ascending price", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{},
			ListingSort{Field: "regular_price", Order: "asc"}, 3, 0)
		require.NoError(t, err)
		require.Len(t, listings, 3)
		assert.Equal(t, float64(1000), listings[0].RegularPrice)
		assert.Equal(t, float64(1100), listings[1].RegularPrice)
	})

	t.Run("camelCase sort alias", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{},
			ListingSort{Field: "regularPrice", Order: "asc"}, 1, 0)
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, float64(1000), listings[0].RegularPrice)
	})

	t.Run("unknown sort field falls back to created_at", func(t *testing.T) {
		listings, err := repo.Find(ctx, ListingFilter{},
			ListingSort{Field: "password; DROP TABLE users"}, 2, 0)
		require.NoError(t, err)
		assert.Len(t, listings, 2)
	})

	t.Run("offset pages through", func(t *testing.T) {
		first, err := repo.Find(ctx, ListingFilter{}, ListingSort{}, 9, 0)
		require.NoError(t, err)
		second, err := repo.Find(ctx, ListingFilter{}, ListingSort{}, 9, 9)
		require.NoError(t, err)
		assert.Len(t, first, 9)
		assert.Len(t, second, 3)
	})
}

func TestListingRepository_SetApproval(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	listing := createTestListing(t, db, owner.ID, rejected)

	require.NoError(t, repo.SetApproval(ctx, listing.ID, true, ""))
	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Empty(t, got.RejectionReason, "re-approval must clear the old rejection reason")

	require.NoError(t, repo.SetApproval(ctx, listing.ID, false, "wrong address"))
	got, err = repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.Equal(t, "wrong address", got.RejectionReason)
}

func TestListingRepository_SetApprovalIgnoresReasonWhenApproving(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	listing := createTestListing(t, db, owner.ID)

	require.NoError(t, repo.SetApproval(ctx, listing.ID, true, "should be dropped"))
	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Empty(t, got.RejectionReason)
}

func TestListingRepository_BulkApprove(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	createTestListing(t, db, owner.ID, approved)
	createTestListing(t, db, owner.ID)
	createTestListing(t, db, owner.ID, rejected)

	modified, err := repo.BulkApprove(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	admin := models.Viewer{ID: 1, IsAdmin: true}
	pending := false
	remaining, err := repo.Count(ctx, ListingFilter{Viewer: admin, Approved: &pending})
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// Idempotent: a second run changes nothing.
	modified, err = repo.BulkApprove(ctx)
	require.NoError(t, err)
	assert.Zero(t, modified)
}

func TestListingRepository_DeleteHidesListing(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	listing := createTestListing(t, db, owner.ID, approved)

	require.NoError(t, repo.Delete(ctx, listing.ID))

	_, err := repo.GetByID(ctx, listing.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	listings, err := repo.Find(ctx, ListingFilter{Viewer: models.Viewer{IsAdmin: true}}, ListingSort{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, listings, 0)
}

func TestListingRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", false)
	createTestListing(t, db, owner.ID, approved, func(l *models.Listing) {
		l.RegularPrice = 1000
	})
	createTestListing(t, db, owner.ID, approved, func(l *models.Listing) {
		l.Type = models.ListingTypeSale
		l.RegularPrice = 250000
	})
	createTestListing(t, db, owner.ID)
	createTestListing(t, db, owner.ID, rejected)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Approved)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(3), stats.Rent)
	assert.Equal(t, int64(1), stats.Sale)
	assert.Equal(t, float64(251000), stats.ApprovedPriceSum)
}
