package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingVisibleTo(t *testing.T) {
	t.Parallel()

	approved := &Listing{ID: 1, OwnerID: 10, Approved: true}
	pending := &Listing{ID: 2, OwnerID: 10}
	rejected := &Listing{ID: 3, OwnerID: 10, RejectionReason: DefaultRejectionReason}

	anonymous := Viewer{}
	owner := Viewer{ID: 10}
	stranger := Viewer{ID: 20}
	admin := Viewer{ID: 30, IsAdmin: true}

	tests := []struct {
		name    string
		listing *Listing
		viewer  Viewer
		want    bool
	}{
		{"approved visible to anonymous", approved, anonymous, true},
		{"approved visible to stranger", approved, stranger, true},
		{"approved visible to owner", approved, owner, true},
		{"approved visible to admin", approved, admin, true},
		{"pending hidden from anonymous", pending, anonymous, false},
		{"pending hidden from stranger", pending, stranger, false},
		{"pending visible to owner", pending, owner, true},
		{"pending visible to admin", pending, admin, true},
		{"rejected hidden from anonymous", rejected, anonymous, false},
		{"rejected hidden from stranger", rejected, stranger, false},
		{"rejected visible to owner", rejected, owner, true},
		{"rejected visible to admin", rejected, admin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.listing.VisibleTo(tt.viewer))
		})
	}
}

func TestListingVisibleTo_AnonymousNeverMatchesZeroOwner(t *testing.T) {
	t.Parallel()

	// An unapproved listing with owner 0 must not leak to anonymous
	// viewers whose zero ID would otherwise match.
	l := &Listing{ID: 1, OwnerID: 0}
	assert.False(t, l.VisibleTo(Viewer{}))
}

func TestListingStateHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Listing{}).Pending())
	assert.False(t, (&Listing{}).Rejected())

	rejected := &Listing{RejectionReason: "spam"}
	assert.False(t, rejected.Pending())
	assert.True(t, rejected.Rejected())

	approved := &Listing{Approved: true}
	assert.False(t, approved.Pending())
	assert.False(t, approved.Rejected())
}
