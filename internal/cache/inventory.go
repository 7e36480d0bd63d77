package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ListingKeyPrefix = "listing:%d"
	// PublicBrowseKey caches the first page of the unfiltered public browse,
	// the hottest read in the system.
	PublicBrowseKey = "listings:public:first"
	StatsKey        = "listings:stats"
)

const (
	UserTTL    = 5 * time.Minute
	ListingTTL = 30 * time.Minute
	BrowseTTL  = 1 * time.Minute
	StatsTTL   = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ListingKey(listingID uint) string {
	return fmt.Sprintf(ListingKeyPrefix, listingID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateListing drops the cached listing along with the browse page and
// stats, both of which may include it.
func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
	InvalidateListingLists(ctx)
}

// InvalidateListingLists drops the aggregate caches. Bulk operations that
// touch many rows call this instead of per-listing invalidation.
func InvalidateListingLists(ctx context.Context) {
	Invalidate(ctx, PublicBrowseKey)
	Invalidate(ctx, StatsKey)
}
