// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"

	"hearth/internal/cache"
	"hearth/internal/models"

	"gorm.io/gorm"
)

// DefaultBrowseLimit is the page size used when the caller does not specify one.
const DefaultBrowseLimit = 9

// ListingFilter describes one browse query: who is asking plus the optional
// field filters. Every read path (Find, Count, Stats) is built from the same
// filter so row sets, page counts and dashboard numbers cannot drift apart.
type ListingFilter struct {
	Viewer models.Viewer

	// OwnerID restricts to one owner's listings. It only lifts the
	// approved-only restriction when it matches the authenticated viewer
	// (or the viewer is an admin).
	OwnerID uint

	// Approved is an explicit approval filter, honored for admins only.
	Approved *bool

	Offer      bool
	Furnished  bool
	Parking    bool
	Type       string // "rent", "sale"; "" or "all" matches both
	SearchTerm string // case-insensitive substring match on name
}

// ListingSort is a single field/direction pair. Zero value sorts by
// created_at descending.
type ListingSort struct {
	Field string
	Order string // "asc" ascending, anything else descending
}

// ListingStats aggregates moderation dashboard counts.
type ListingStats struct {
	Total            int64   `json:"total"`
	Approved         int64   `json:"approved"`
	Pending          int64   `json:"pending"`
	Rent             int64   `json:"rent"`
	Sale             int64   `json:"sale"`
	ApprovedPriceSum float64 `json:"approved_price_sum"`
}

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Find(ctx context.Context, filter ListingFilter, sort ListingSort, limit, offset int) ([]*models.Listing, error)
	Count(ctx context.Context, filter ListingFilter) (int64, error)
	Update(ctx context.Context, listing *models.Listing) error
	SetApproval(ctx context.Context, id uint, approved bool, rejectionReason string) error
	BulkApprove(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*ListingStats, error)
}

// listingRepository implements ListingRepository
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).Create(listing).Error
	if err == nil {
		cache.InvalidateListingLists(ctx)
	}
	return err
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := cache.Aside(ctx, cache.ListingKey(id), &listing, cache.ListingTTL, func() error {
		return r.db.WithContext(ctx).First(&listing, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) Find(ctx context.Context, filter ListingFilter, sort ListingSort, limit, offset int) ([]*models.Listing, error) {
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}
	if offset < 0 {
		offset = 0
	}

	// Callers rely on array semantics: an empty result is [], never null.
	listings := make([]*models.Listing, 0, limit)
	err := r.applySort(r.applyFilter(r.db.WithContext(ctx), filter), sort).
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) Count(ctx context.Context, filter ListingFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Listing{}), filter).
		Count(&count).Error
	return count, err
}

// applyFilter builds the WHERE clause for a ListingFilter. The visibility
// portion mirrors models.Listing.VisibleTo in query form; the two must stay
// in sync.
func (r *listingRepository) applyFilter(db *gorm.DB, f ListingFilter) *gorm.DB {
	switch {
	case f.Viewer.IsAdmin:
		// Admins browse unrestricted but may deliberately ask for
		// only-pending or only-approved.
		if f.Approved != nil {
			db = db.Where("approved = ?", *f.Approved)
		}
		if f.OwnerID != 0 {
			db = db.Where("owner_id = ?", f.OwnerID)
		}
	case f.OwnerID != 0 && f.OwnerID == f.Viewer.ID:
		// Owners see all of their own listings regardless of state.
		db = db.Where("owner_id = ?", f.OwnerID)
	default:
		// Public browse: approved only, ignoring any caller-supplied
		// approved parameter. An owner filter for someone else's
		// listings stays restricted to their approved set.
		db = db.Where("approved = ?", true)
		if f.OwnerID != 0 {
			db = db.Where("owner_id = ?", f.OwnerID)
		}
	}

	if f.Offer {
		db = db.Where("offer = ?", true)
	}
	if f.Furnished {
		db = db.Where("furnished = ?", true)
	}
	if f.Parking {
		db = db.Where("parking = ?", true)
	}
	if f.Type != "" && f.Type != "all" {
		db = db.Where("type = ?", f.Type)
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	return db
}

// sortColumns whitelists the sortable fields to actual model columns.
var sortColumns = map[string]string{
	"created_at":    "created_at",
	"createdAt":     "created_at",
	"updated_at":    "updated_at",
	"updatedAt":     "updated_at",
	"regular_price": "regular_price",
	"regularPrice":  "regular_price",
	"name":          "name",
}

func (r *listingRepository) applySort(db *gorm.DB, sort ListingSort) *gorm.DB {
	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if sort.Order == "asc" {
		direction = "ASC"
	}
	return db.Order(column + " " + direction)
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return err
	}
	cache.InvalidateListing(ctx, listing.ID)
	return nil
}

// SetApproval flips the approval state in a single update. Approval always
// clears the rejection reason so a re-approved listing never leaks its old
// rejection note.
func (r *listingRepository) SetApproval(ctx context.Context, id uint, approved bool, rejectionReason string) error {
	if approved {
		rejectionReason = ""
	}
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved":         approved,
			"rejection_reason": rejectionReason,
		}).Error
	if err != nil {
		return err
	}
	cache.InvalidateListing(ctx, id)
	return nil
}

// BulkApprove approves every non-approved listing in one statement and
// returns the number of rows changed. Running it again is a no-op.
func (r *listingRepository) BulkApprove(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("approved = ?", false).
		Updates(map[string]interface{}{
			"approved":         true,
			"rejection_reason": "",
		})
	if result.Error != nil {
		return 0, result.Error
	}
	cache.InvalidateListingLists(ctx)
	return result.RowsAffected, nil
}

func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Listing{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateListing(ctx, id)
	return nil
}

// Stats derives every dashboard number through the same applyFilter used by
// Find and Count, so the counts always agree with the query results.
func (r *listingRepository) Stats(ctx context.Context) (*ListingStats, error) {
	admin := models.Viewer{IsAdmin: true}
	approved := true
	pending := false

	stats := &ListingStats{}
	counts := []struct {
		filter ListingFilter
		dest   *int64
	}{
		{ListingFilter{Viewer: admin}, &stats.Total},
		{ListingFilter{Viewer: admin, Approved: &approved}, &stats.Approved},
		{ListingFilter{Viewer: admin, Approved: &pending}, &stats.Pending},
		{ListingFilter{Viewer: admin, Type: models.ListingTypeRent}, &stats.Rent},
		{ListingFilter{Viewer: admin, Type: models.ListingTypeSale}, &stats.Sale},
	}
	for _, c := range counts {
		n, err := r.Count(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}

	err := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.Listing{}),
		ListingFilter{Viewer: admin, Approved: &approved},
	).Select("COALESCE(SUM(regular_price), 0)").Scan(&stats.ApprovedPriceSum).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
