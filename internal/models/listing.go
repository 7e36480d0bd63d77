package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing type values.
const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"
)

// DefaultRejectionReason is recorded when an admin rejects a listing
// without providing a reason.
const DefaultRejectionReason = "Rejected by administrator"

// Listing represents a property listing with an approval lifecycle.
//
// Approved is the single source of truth for public visibility. A listing
// with Approved=false and an empty RejectionReason is pending review; a
// non-empty RejectionReason marks it as rejected.
type Listing struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	OwnerID       uint     `gorm:"not null;index" json:"owner_id"`
	Owner         User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name          string   `gorm:"not null" json:"name"`
	Description   string   `gorm:"type:text;not null" json:"description"`
	Address       string   `gorm:"not null" json:"address"`
	Type          string   `gorm:"not null;index" json:"type"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	RegularPrice  float64  `gorm:"not null" json:"regular_price"`
	DiscountPrice float64  `json:"discount_price"`
	Offer         bool     `gorm:"not null;default:false" json:"offer"`
	Furnished     bool     `gorm:"not null;default:false" json:"furnished"`
	Parking       bool     `gorm:"not null;default:false" json:"parking"`
	ImageURLs     []string `gorm:"serializer:json;not null" json:"image_urls"`

	Approved        bool   `gorm:"not null;default:false;index" json:"approved"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Viewer is the resolved identity making a request. The zero value is the
// anonymous viewer.
type Viewer struct {
	ID      uint
	IsAdmin bool
}

// Anonymous reports whether the viewer carries no authenticated identity.
func (v Viewer) Anonymous() bool {
	return v.ID == 0
}

// VisibleTo reports whether the given viewer may see this listing:
// approved listings are public, owners and admins always see their own.
func (l *Listing) VisibleTo(v Viewer) bool {
	if l.Approved {
		return true
	}
	if v.IsAdmin {
		return true
	}
	return !v.Anonymous() && v.ID == l.OwnerID
}

// Pending reports whether the listing is awaiting review.
func (l *Listing) Pending() bool {
	return !l.Approved && l.RejectionReason == ""
}

// Rejected reports whether the listing was explicitly rejected.
func (l *Listing) Rejected() bool {
	return !l.Approved && l.RejectionReason != ""
}
