package internal

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendlyID(t *testing.T) {
	id := uuid.Must(uuid.FromString("0190f4d2-3a6b-7c1e-9f00-1234567890ab"))

	first := FriendlyID("cart", id)
	assert.Equal(t, first, FriendlyID("cart", id))
	assert.Len(t, first, FriendlyLength)
	assert.True(t, IsFriendlyID(first))
	assert.NotEqual(t, first, FriendlyID("order", id))
	assert.NotEqual(t, first, FriendlyID("cart", uuid.Must(uuid.NewV4())))

	for _, s := range []string{"", "short", "0000000000000", "lllllllllll1", "abc-efghijkm"} {
		assert.False(t, IsFriendlyID(s), s)
	}
}

func TestAssignFriendlyID(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	var f Friendly
	f.AssignFriendlyID("wishlist", uuid.Nil)
	assert.Empty(t, f.FriendlyID)

	f.AssignFriendlyID("wishlist", id)
	require.Equal(t, FriendlyID("wishlist", id), f.FriendlyID)

	f.AssignFriendlyID("wishlist", uuid.Must(uuid.NewV4()))
	assert.Equal(t, FriendlyID("wishlist", id), f.FriendlyID)
}

func TestSlug(t *testing.T) {
	id := uuid.Must(uuid.FromString("a1b2c3d4-0000-4000-8000-000000000000"))

	for _, test := range []struct {
		name   string
		expect string
	}{
		{name: "Crème Brûlée Roses", expect: "a1b2c3d4-creme-brulee-roses"},
		{name: "  Pots & Planters!! ", expect: "a1b2c3d4-pots-planters"},
		{name: "", expect: "a1b2c3d4"},
	} {
		assert.Equal(t, test.expect, Slug(test.name, id))
	}
	assert.LessOrEqual(t, len(Slug(string(make([]byte, 300))+"x", id)), SlugMaxLength)
}

func TestSearchDocument(t *testing.T) {
	assert.Equal(t, "creme brulee roses", SearchDocument("  Crème", "Brûlée\tROSES "))
}
