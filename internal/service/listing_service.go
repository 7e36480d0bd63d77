// Package service contains the business logic layer between HTTP handlers
// and repositories.
package service

import (
	"context"
	"errors"
	"fmt"

	"hearth/internal/cache"
	"hearth/internal/mailer"
	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"
	"hearth/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// RecentLimit is the page size of the recent-listings endpoint.
const RecentLimit = 5

const maxContactMessageLen = 2000

// ListingService owns the listing approval lifecycle and the role-aware
// browse queries built on top of it.
type ListingService struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	mailer      mailer.Mailer
	// isAdmin re-checks privilege against the database; state-changing
	// operations never rely on the token claim alone.
	isAdmin func(ctx context.Context, userID uint) (bool, error)
}

// NewListingService wires the listing service.
func NewListingService(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	m mailer.Mailer,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		mailer:      m,
		isAdmin:     isAdmin,
	}
}

// CreateListingInput carries the fields of a new listing. Approved is only
// honored when the creator is an admin.
type CreateListingInput struct {
	OwnerID       uint
	Name          string
	Description   string
	Address       string
	Type          string
	Bedrooms      int
	Bathrooms     int
	RegularPrice  float64
	DiscountPrice float64
	Offer         bool
	Furnished     bool
	Parking       bool
	ImageURLs     []string
	Approved      *bool
}

// UpdateListingInput is a partial patch; nil fields are left unchanged.
// Approved and RejectionReason are silently dropped for non-admin actors.
type UpdateListingInput struct {
	Name            *string
	Description     *string
	Address         *string
	Type            *string
	Bedrooms        *int
	Bathrooms       *int
	RegularPrice    *float64
	DiscountPrice   *float64
	Offer           *bool
	Furnished       *bool
	Parking         *bool
	ImageURLs       []string
	Approved        *bool
	RejectionReason *string
}

// BrowseListingsInput mirrors the public browse query surface.
type BrowseListingsInput struct {
	Viewer     models.Viewer
	OwnerID    uint
	Approved   *bool
	Offer      bool
	Furnished  bool
	Parking    bool
	Type       string
	SearchTerm string
	SortField  string
	SortOrder  string
	Limit      int
	Offset     int
}

func (in BrowseListingsInput) filter() repository.ListingFilter {
	return repository.ListingFilter{
		Viewer:     in.Viewer,
		OwnerID:    in.OwnerID,
		Approved:   in.Approved,
		Offer:      in.Offer,
		Furnished:  in.Furnished,
		Parking:    in.Parking,
		Type:       in.Type,
		SearchTerm: in.SearchTerm,
	}
}

// isPlainPublicBrowse reports whether the query is the unfiltered anonymous
// first page, the only browse variant worth caching.
func (in BrowseListingsInput) isPlainPublicBrowse() bool {
	return in.Viewer.Anonymous() &&
		in.OwnerID == 0 && in.Approved == nil &&
		!in.Offer && !in.Furnished && !in.Parking &&
		(in.Type == "" || in.Type == "all") &&
		in.SearchTerm == "" &&
		in.SortField == "" && in.SortOrder == "" &&
		in.Offset == 0 && (in.Limit <= 0 || in.Limit == repository.DefaultBrowseLimit)
}

func (s *ListingService) validateFields(l *models.Listing) error {
	if err := validation.ValidateListingFields(l.Name, l.Description, l.Address); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateListingType(l.Type); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateImageURLs(l.ImageURLs); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePrices(l.RegularPrice, l.DiscountPrice, l.Offer); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Create starts a listing's lifecycle. Admin-authored listings are approved
// immediately and need no review; everyone else starts pending.
func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	listing := &models.Listing{
		OwnerID:       in.OwnerID,
		Name:          in.Name,
		Description:   in.Description,
		Address:       in.Address,
		Type:          in.Type,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		RegularPrice:  in.RegularPrice,
		DiscountPrice: in.DiscountPrice,
		Offer:         in.Offer,
		Furnished:     in.Furnished,
		Parking:       in.Parking,
		ImageURLs:     in.ImageURLs,
	}
	if err := s.validateFields(listing); err != nil {
		return nil, err
	}

	admin, err := s.isAdmin(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	listing.Approved = admin
	if admin && in.Approved != nil {
		listing.Approved = *in.Approved
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Get fetches one listing, enforcing the visibility predicate. Listings the
// viewer may not see are reported as not found rather than forbidden, so
// pending content cannot be enumerated.
func (s *ListingService) Get(ctx context.Context, id uint, viewer models.Viewer) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, err
	}
	if !listing.VisibleTo(viewer) {
		return nil, models.NewNotFoundError("Listing", id)
	}
	return listing, nil
}

// Browse runs the role-aware listing query and returns the page plus the
// total match count computed from the same filter.
func (s *ListingService) Browse(ctx context.Context, in BrowseListingsInput) ([]*models.Listing, int64, error) {
	filter := in.filter()
	sort := repository.ListingSort{Field: in.SortField, Order: in.SortOrder}

	var listings []*models.Listing
	var err error
	if in.isPlainPublicBrowse() {
		err = cache.Aside(ctx, cache.PublicBrowseKey, &listings, cache.BrowseTTL, func() error {
			var fetchErr error
			listings, fetchErr = s.listingRepo.Find(ctx, filter, sort, in.Limit, in.Offset)
			return fetchErr
		})
	} else {
		listings, err = s.listingRepo.Find(ctx, filter, sort, in.Limit, in.Offset)
	}
	if err != nil {
		return nil, 0, err
	}
	if listings == nil {
		listings = make([]*models.Listing, 0)
	}

	total, err := s.listingRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Recent returns the latest listings: admins see every state, everyone else
// only approved ones.
func (s *ListingService) Recent(ctx context.Context, viewer models.Viewer) ([]*models.Listing, error) {
	return s.listingRepo.Find(ctx,
		repository.ListingFilter{Viewer: viewer},
		repository.ListingSort{},
		RecentLimit, 0)
}

// Pending returns the moderation queue for admins. Non-admin callers fail
// closed: they get the public approved-only result set, never an error and
// never pending content.
func (s *ListingService) Pending(ctx context.Context, viewer models.Viewer, limit, offset int) ([]*models.Listing, error) {
	filter := repository.ListingFilter{Viewer: viewer}
	if viewer.IsAdmin {
		pending := false
		filter.Approved = &pending
	}
	listings, err := s.listingRepo.Find(ctx, filter, repository.ListingSort{}, limit, offset)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = make([]*models.Listing, 0)
	}
	return listings, nil
}

// Stats returns the moderation dashboard aggregates.
func (s *ListingService) Stats(ctx context.Context) (*repository.ListingStats, error) {
	var stats repository.ListingStats
	err := cache.Aside(ctx, cache.StatsKey, &stats, cache.StatsTTL, func() error {
		fetched, fetchErr := s.listingRepo.Stats(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		stats = *fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Update applies a partial patch. Only admins may touch the approval state;
// for anyone else those fields are stripped from the patch before the
// write, not rejected.
func (s *ListingService) Update(ctx context.Context, actorID, listingID uint, in UpdateListingInput) (*models.Listing, error) {
	isActorAdmin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}

	listing, err := s.Get(ctx, listingID, models.Viewer{ID: actorID, IsAdmin: isActorAdmin})
	if err != nil {
		return nil, err
	}
	if actorID != listing.OwnerID && !isActorAdmin {
		return nil, models.NewForbiddenError("You can only modify your own listings")
	}

	if in.Name != nil {
		listing.Name = *in.Name
	}
	if in.Description != nil {
		listing.Description = *in.Description
	}
	if in.Address != nil {
		listing.Address = *in.Address
	}
	if in.Type != nil {
		listing.Type = *in.Type
	}
	if in.Bedrooms != nil {
		listing.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		listing.Bathrooms = *in.Bathrooms
	}
	if in.RegularPrice != nil {
		listing.RegularPrice = *in.RegularPrice
	}
	if in.DiscountPrice != nil {
		listing.DiscountPrice = *in.DiscountPrice
	}
	if in.Offer != nil {
		listing.Offer = *in.Offer
	}
	if in.Furnished != nil {
		listing.Furnished = *in.Furnished
	}
	if in.Parking != nil {
		listing.Parking = *in.Parking
	}
	if in.ImageURLs != nil {
		listing.ImageURLs = in.ImageURLs
	}
	if isActorAdmin {
		if in.Approved != nil {
			listing.Approved = *in.Approved
		}
		if in.RejectionReason != nil {
			listing.RejectionReason = *in.RejectionReason
		}
	}

	if err := s.validateFields(listing); err != nil {
		return nil, err
	}
	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Delete removes a listing; owner or admin only.
func (s *ListingService) Delete(ctx context.Context, actorID, listingID uint) error {
	isActorAdmin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}

	// Fetch with the actor's real visibility so hidden listings report
	// not-found to strangers instead of confirming they exist with a 403.
	listing, err := s.Get(ctx, listingID, models.Viewer{ID: actorID, IsAdmin: isActorAdmin})
	if err != nil {
		return err
	}
	if actorID != listing.OwnerID && !isActorAdmin {
		return models.NewForbiddenError("You can only modify your own listings")
	}
	return s.listingRepo.Delete(ctx, listingID)
}

func (s *ListingService) requireAdmin(ctx context.Context, actorID uint) error {
	admin, err := s.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

// Approve marks a listing publicly visible and clears any previous
// rejection reason.
func (s *ListingService) Approve(ctx context.Context, actorID, listingID uint) (*models.Listing, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	listing, err := s.Get(ctx, listingID, models.Viewer{ID: actorID, IsAdmin: true})
	if err != nil {
		return nil, err
	}
	if err := s.listingRepo.SetApproval(ctx, listingID, true, ""); err != nil {
		return nil, err
	}
	listing.Approved = true
	listing.RejectionReason = ""
	return listing, nil
}

// Reject takes a listing out of public view and records why. An empty
// reason falls back to the default.
func (s *ListingService) Reject(ctx context.Context, actorID, listingID uint, reason string) (*models.Listing, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = models.DefaultRejectionReason
	}
	listing, err := s.Get(ctx, listingID, models.Viewer{ID: actorID, IsAdmin: true})
	if err != nil {
		return nil, err
	}
	if err := s.listingRepo.SetApproval(ctx, listingID, false, reason); err != nil {
		return nil, err
	}
	listing.Approved = false
	listing.RejectionReason = reason
	return listing, nil
}

// BulkApprove approves every pending or rejected listing in one atomic
// update and returns the number of listings changed.
func (s *ListingService) BulkApprove(ctx context.Context, actorID uint) (int64, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return 0, err
	}

	span, ctx := observability.NewSpan(ctx, "listings.bulk_approve")
	defer span.End()

	modified, err := s.listingRepo.BulkApprove(ctx)
	if err != nil {
		span.SetError(err)
		return 0, err
	}
	span.AddAttributes(attribute.Int64("listings.modified", modified))
	return modified, nil
}

// OwnerContact returns the owner of a listing the viewer is allowed to see.
func (s *ListingService) OwnerContact(ctx context.Context, viewer models.Viewer, listingID uint) (*models.User, error) {
	listing, err := s.Get(ctx, listingID, viewer)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, listing.OwnerID)
}

// SendOwnerMessage relays a message from the viewer to the listing owner
// through the configured mailer.
func (s *ListingService) SendOwnerMessage(ctx context.Context, viewer models.Viewer, listingID uint, message string) error {
	if message == "" {
		return models.NewValidationError("message is required")
	}
	if len(message) > maxContactMessageLen {
		return models.NewValidationError(fmt.Sprintf("message too long (max %d characters)", maxContactMessageLen))
	}

	listing, err := s.Get(ctx, listingID, viewer)
	if err != nil {
		return err
	}
	owner, err := s.userRepo.GetByID(ctx, listing.OwnerID)
	if err != nil {
		return err
	}
	sender, err := s.userRepo.GetByID(ctx, viewer.ID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Regarding your listing %q", listing.Name)
	body := fmt.Sprintf("%s (%s) wrote about your listing %q:\n\n%s\n",
		sender.Username, sender.Email, listing.Name, message)

	span, ctx := observability.NewSpan(ctx, "mailer.send")
	span.AddAttributes(attribute.Int("listing.id", int(listing.ID)))
	defer span.End()

	if err := s.mailer.Send(ctx, owner.Email, subject, body); err != nil {
		span.SetError(err)
		return models.NewInternalError(err)
	}
	return nil
}
