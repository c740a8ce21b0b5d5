package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_hub/internal/domain"
)

func decodeRecord(t *testing.T, raw string) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestMapListing_Aliases(t *testing.T) {
	rec := decodeRecord(t, `{
		"title": " Unity Hall ",
		"property_type": "Dormitory",
		"about": "Shared rooms opposite the faculty of engineering.",
		"location": {"address": "4 Campus Road", "city": "Ibadan", "lat": "7,44", "lng": 3.9},
		"campus": "University of Ibadan",
		"monthly_rent": 350.5,
		"gender": "Girls",
		"capacity": "10",
		"vacancies": 4,
		"facilities": ["Wi-Fi", "AC", "Helipad", "wifi", "study room"],
		"photos": [{"url": "https://img.test/a.jpg"}, {"src": "https://img.test/b.jpg"}]
	}`)

	l := mapListing(rec, "ngn")
	assert.Equal(t, "Unity Hall", l.Basics.Name)
	assert.Equal(t, "hostel", l.Basics.Type)
	assert.Equal(t, "4 Campus Road", l.Location.Address)
	assert.Equal(t, "Ibadan", l.Location.City)
	require.NotNil(t, l.Location.Lat)
	assert.InDelta(t, 7.44, *l.Location.Lat, 1e-9)
	require.NotNil(t, l.Location.NearbyUniversity)
	assert.Equal(t, "University of Ibadan", *l.Location.NearbyUniversity)
	assert.Equal(t, int64(35050), l.Pricing.PriceCents)
	assert.Equal(t, "NGN", l.Pricing.Currency)
	assert.Equal(t, "female", l.Pricing.GenderPolicy)
	assert.Equal(t, 10, l.Pricing.Rooms)
	assert.Equal(t, 4, l.Pricing.AvailableRooms)
	assert.Equal(t, []string{"wifi", "air_conditioning", "study_room"}, l.Amenities.Amenities)
	assert.Equal(t, []string{"https://img.test/a.jpg", "https://img.test/b.jpg"}, l.Amenities.Images)
}

func TestMapListing_Defaults(t *testing.T) {
	l := mapListing(map[string]any{"name": "Bare", "rooms": 3, "price_cents": 1200}, "usd")
	assert.Equal(t, "hostel", l.Basics.Type)
	assert.Equal(t, "USD", l.Pricing.Currency)
	assert.Equal(t, "mixed", l.Pricing.GenderPolicy)
	assert.Equal(t, 3, l.Pricing.AvailableRooms)
	assert.Equal(t, int64(1200), l.Pricing.PriceCents)
	assert.NotNil(t, l.Amenities.Images)
	assert.Empty(t, l.Amenities.Amenities)
}

func TestImportListing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, domain.RoleBusiness, "owner@hostelhub.test")
	imp := NewImportService(e.hostels, "")

	good := decodeRecord(t, `{
		"name": "Unity Hall",
		"type": "hostel",
		"description": "Shared rooms opposite the faculty of engineering.",
		"address": "4 Campus Road",
		"city": "Ibadan",
		"price": 120,
		"rooms": 6,
		"amenities": "wifi, laundry"
	}`)
	h, err := imp.ImportListing(ctx, owner, good)
	require.NoError(t, err)
	assert.Equal(t, domain.HostelPublished, h.Status)
	assert.Equal(t, "USD", h.Currency)
	assert.Equal(t, []string{"wifi", "laundry"}, h.Amenities)

	// a record failing a later step leaves nothing behind
	bad := decodeRecord(t, `{
		"name": "Ghost Hall",
		"description": "This one has no address and cannot be listed.",
		"price": 100,
		"rooms": 2
	}`)
	_, err = imp.ImportListing(ctx, owner, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")

	mine, err := e.store.ListHostelsByOwner(ctx, owner.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, h.ID, mine[0].ID)

	student := e.user(t, domain.RoleStudent, "ada@hostelhub.test")
	_, err = imp.ImportListing(ctx, student, good)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
