package filter

import (
	"testing"

	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// center is Clark, NJ, the reference point used throughout.
var center = geo.Point{Lat: 40.62, Lon: -74.32}

func locatedVenue(name string, lat, lon float64) *church.Venue {
	return church.NewVenue("", name, &geo.Point{Lat: lat, Lon: lon}, "", "Clark", "NJ", "USA")
}

func TestNearbyRadius(t *testing.T) {
	// 0.123 degrees of latitude is about 8.5 miles; 0.178 is about 12.3.
	near := locatedVenue("Near Church", 40.743, -74.32)
	far := locatedVenue("Far Church", 40.798, -74.32)

	results, err := Nearby([]*church.Venue{far, near}, center, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Near Church", results[0].Venue.Name)
	assert.InDelta(t, 8.5, results[0].DistanceMiles, 0.2)
}

func TestNearbySortedByDistance(t *testing.T) {
	a := locatedVenue("Alpha", 40.70, -74.32)  // ~5.5 mi
	b := locatedVenue("Beta", 40.63, -74.32)   // ~0.7 mi
	c := locatedVenue("Gamma", 40.65, -74.32)  // ~2.1 mi

	results, err := Nearby([]*church.Venue{a, b, c}, center, 15)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "Beta", results[0].Venue.Name)
	assert.Equal(t, "Gamma", results[1].Venue.Name)
	assert.Equal(t, "Alpha", results[2].Venue.Name)
}

func TestNearbyTieBrokenByName(t *testing.T) {
	a := locatedVenue("Zeta", 40.63, -74.32)
	b := locatedVenue("Alpha", 40.63, -74.32)

	results, err := Nearby([]*church.Venue{a, b}, center, 15)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Alpha", results[0].Venue.Name)
	assert.Equal(t, "Zeta", results[1].Venue.Name)
}

func TestNearbyInvalidRadius(t *testing.T) {
	for _, radius := range []float64{0, -5} {
		_, err := Nearby(nil, center, radius)
		assert.ErrorIs(t, err, ErrInvalidRadius)
	}
}

func TestNearbyExcludesUnlocated(t *testing.T) {
	unlocated := church.NewVenue("", "No Coords Church", nil, "1 Main St", "Clark", "NJ", "USA")
	located := locatedVenue("Located", 40.63, -74.32)

	results, err := Nearby([]*church.Venue{unlocated, located}, center, 15)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Located", results[0].Venue.Name)
}

func TestAllIncludesUnlocated(t *testing.T) {
	far := locatedVenue("Far", 34.05, -118.24)
	near := locatedVenue("Near", 40.63, -74.32)
	unlocatedB := church.NewVenue("", "B Church", nil, "1 Main St", "Clark", "NJ", "USA")
	unlocatedA := church.NewVenue("", "A Church", nil, "2 Main St", "Clark", "NJ", "USA")

	results := All([]*church.Venue{far, unlocatedB, near, unlocatedA}, center)

	require.Len(t, results, 4)
	assert.Equal(t, "Near", results[0].Venue.Name)
	assert.Equal(t, "Far", results[1].Venue.Name)
	assert.Equal(t, "A Church", results[2].Venue.Name)
	assert.Equal(t, "B Church", results[3].Venue.Name)
}

func TestNearbyEvents(t *testing.T) {
	near := locatedVenue("Near Church", 40.63, -74.32)
	far := locatedVenue("Far Church", 34.05, -118.24)
	unlocated := church.NewVenue("", "No Coords", nil, "1 Main St", "Clark", "NJ", "USA")

	events := []*church.Event{
		church.NewEvent(far, "Mission Trip", "2026-09-01", "09:00", church.EventMissionTrip, "", ""),
		church.NewEvent(near, "Food Drive", "2026-09-01", "10:00", church.EventService, "", ""),
		church.NewEvent(unlocated, "Bake Sale", "2026-09-01", "11:00", church.EventFundraiser, "", ""),
	}

	results, err := NearbyEvents(events, center, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Food Drive", results[0].Event.Title)

	_, err = NearbyEvents(events, center, 0)
	assert.ErrorIs(t, err, ErrInvalidRadius)
}
