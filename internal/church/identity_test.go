package church

import (
	"testing"

	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	coords := &geo.Point{Lat: 40.62001, Lon: -74.32002}
	fp1 := Fingerprint("st mary", coords, "427 west side ave")
	fp2 := Fingerprint("st mary", coords, "427 west side ave")

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 32)
}

func TestFingerprintJitterTolerance(t *testing.T) {
	// Coordinates differing only at the sixth decimal degree round to the
	// same hashing precision and must produce the same fingerprint.
	a := Fingerprint("st mary", &geo.Point{Lat: 40.620011, Lon: -74.320022}, "427 west side ave")
	b := Fingerprint("st mary", &geo.Point{Lat: 40.620013, Lon: -74.320024}, "427 west side ave")
	assert.Equal(t, a, b)
}

func TestFingerprintDistinguishes(t *testing.T) {
	base := Fingerprint("st mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 west side ave")

	tests := []struct {
		name   string
		coords *geo.Point
		street string
		nm     string
	}{
		{"different name", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 west side ave", "st mark"},
		{"different street", &geo.Point{Lat: 40.62, Lon: -74.32}, "429 west side ave", "st mary"},
		{"different location", &geo.Point{Lat: 40.71, Lon: -74.01}, "427 west side ave", "st mary"},
		{"missing coordinates", nil, "427 west side ave", "st mary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Fingerprint(tt.nm, tt.coords, tt.street))
		})
	}
}

func TestNewVenue(t *testing.T) {
	coords := &geo.Point{Lat: 40.62, Lon: -74.32}
	v := NewVenue("place-1", "Saint Mary Coptic Orthodox Church", coords, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA")

	assert.Equal(t, "st mary", v.NormalizedName)
	assert.NotEmpty(t, v.Fingerprint)
	assert.False(t, v.Unverifiable)
	assert.Equal(t, v.Fingerprint, v.Identity())
	assert.False(t, v.DiscoveredAt.IsZero())
}

func TestNewVenueUnverifiable(t *testing.T) {
	v := NewVenue("", "St. Mark", nil, "", "Clark", "NJ", "USA")

	assert.True(t, v.Unverifiable)
	assert.Empty(t, v.Fingerprint)
	assert.NotEmpty(t, v.Identity(), "unverifiable venues still need a stable storage key")
}

func TestSignature(t *testing.T) {
	sig := NewSignature("st mary", " Los Angeles ", "ca")
	assert.Equal(t, Signature{Name: "st mary", City: "los angeles", Region: "CA"}, sig)
	assert.True(t, sig.Valid())

	assert.False(t, NewSignature("st mary", "", "CA").Valid())
	assert.False(t, NewSignature("", "Clark", "NJ").Valid())
}

func TestEventKey(t *testing.T) {
	venue := NewVenue("p1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")

	a := NewEvent(venue, "Food Drive", "2026-09-12", "10:00", EventService, "", "https://example.org")
	b := NewEvent(venue, "  food   drive ", "2026-09-12", "10:00", EventService, "different description", "")
	assert.Equal(t, a.Key(), b.Key(), "formatting-only title differences collapse")

	c := NewEvent(venue, "Food Drive", "2026-09-13", "10:00", EventService, "", "")
	assert.NotEqual(t, a.Key(), c.Key(), "different date is a different event")
}

func TestNewEventTimeTBD(t *testing.T) {
	venue := NewVenue("p1", "St. Mary", nil, "427 West Side Ave", "Jersey City", "NJ", "USA")
	evt := NewEvent(venue, "Bake Sale", "2026-10-01", "  ", EventFundraiser, "", "")
	assert.Equal(t, TimeTBD, evt.Time)
}
