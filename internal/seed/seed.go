// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"hearth/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumListings int
	ShouldClean bool
}

// Seeder builds domain entities and persists them to the database.
type Seeder struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Seed populates the database with test data
func (s *Seeder) Seed(opts Options) error {
	log.Printf("Starting database seeding with %d users and %d listings...", opts.NumUsers, opts.NumListings)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	listings, err := s.CreateListings(users, opts.NumListings)
	if err != nil {
		return fmt.Errorf("failed to create listings: %w", err)
	}
	log.Printf("%d listings created", len(listings))

	log.Println("Database seeding completed successfully")
	return nil
}

// ClearAll truncates all seeded tables.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE listings, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// CreateUsers persists n sample users plus one known admin account.
// Every seeded account uses the password "password123".
func (s *Seeder) CreateUsers(n int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n+1)
	admin := &models.User{
		Username: "admin",
		Email:    "admin@hearth.local",
		Password: string(hashed),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsAdmin:  true,
	}
	users = append(users, admin)

	for i := 0; i < n; i++ {
		users = append(users, &models.User{
			Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		})
	}

	if err := s.db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateListings persists n sample listings spread across the given owners.
// Roughly 60% are approved, 25% pending, 15% rejected, so moderation
// screens have something to show.
func (s *Seeder) CreateListings(owners []*models.User, n int) ([]*models.Listing, error) {
	if len(owners) == 0 {
		return nil, fmt.Errorf("no owners to assign listings to")
	}

	listings := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		owner := owners[s.r.Intn(len(owners))]
		listings = append(listings, s.buildListing(owner))
	}

	if err := s.db.Create(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *Seeder) buildListing(owner *models.User) *models.Listing {
	listingType := models.ListingTypeRent
	regular := float64(gofakeit.Number(800, 6000))
	if s.r.Intn(2) == 0 {
		listingType = models.ListingTypeSale
		regular = float64(gofakeit.Number(90000, 1200000))
	}

	offer := s.r.Intn(4) == 0
	discount := 0.0
	if offer {
		discount = regular * (0.7 + s.r.Float64()*0.25)
	}

	images := make([]string, 0, 3)
	for j := 0; j < 1+s.r.Intn(3); j++ {
		images = append(images, fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()))
	}

	addr := gofakeit.Address()
	listing := &models.Listing{
		OwnerID:       owner.ID,
		Name:          fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), gofakeit.NounConcrete()),
		Description:   gofakeit.Paragraph(1, 3, 8, "\n"),
		Address:       fmt.Sprintf("%s, %s, %s", addr.Street, addr.City, addr.State),
		Type:          listingType,
		Bedrooms:      1 + s.r.Intn(5),
		Bathrooms:     1 + s.r.Intn(3),
		RegularPrice:  regular,
		DiscountPrice: discount,
		Offer:         offer,
		Furnished:     s.r.Intn(2) == 0,
		Parking:       s.r.Intn(2) == 0,
		ImageURLs:     images,
	}

	// realistic created_at spread over the past 90 days
	daysBack := s.r.Intn(90)
	listing.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(s.r.Intn(24))*time.Hour)

	switch roll := s.r.Intn(100); {
	case roll < 60:
		listing.Approved = true
	case roll < 85:
		// pending: zero values already correct
	default:
		listing.RejectionReason = models.DefaultRejectionReason
	}

	return listing
}
