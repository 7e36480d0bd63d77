// Package validation contains input validation helpers shared by the
// service layer.
package validation

import (
	"fmt"
	"net/url"
	"strings"

	"hearth/internal/models"
)

const (
	maxNameLen        = 120
	maxDescriptionLen = 10000
	maxAddressLen     = 300
	maxImageURLs      = 10
)

// ValidateListingType checks the listing type enum.
func ValidateListingType(t string) error {
	switch t {
	case models.ListingTypeRent, models.ListingTypeSale:
		return nil
	}
	return fmt.Errorf("type must be %q or %q", models.ListingTypeRent, models.ListingTypeSale)
}

// ValidateImageURLs checks that the image list is non-empty, bounded, and
// every entry parses as a URL. The first element is the cover image.
func ValidateImageURLs(urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("at least one image is required")
	}
	if len(urls) > maxImageURLs {
		return fmt.Errorf("at most %d images are allowed", maxImageURLs)
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("image URLs must not be empty")
		}
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid image URL %q", u)
		}
	}
	return nil
}

// ValidatePrices checks price invariants: positive regular price, and a
// discount no greater than the regular price whenever an offer is active.
func ValidatePrices(regular, discount float64, offer bool) error {
	if regular <= 0 {
		return fmt.Errorf("regular_price must be positive")
	}
	if offer {
		if discount <= 0 {
			return fmt.Errorf("discount_price must be positive when offer is set")
		}
		if discount > regular {
			return fmt.Errorf("discount_price must not exceed regular_price")
		}
	}
	return nil
}

// ValidateListingFields checks the descriptive fields of a listing.
func ValidateListingFields(name, description, address string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("name too long (max %d characters)", maxNameLen)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(description) > maxDescriptionLen {
		return fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	}
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("address is required")
	}
	if len(address) > maxAddressLen {
		return fmt.Errorf("address too long (max %d characters)", maxAddressLen)
	}
	return nil
}
