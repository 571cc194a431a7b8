package dedupe

import (
	"fmt"
	"sync"
	"testing"

	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitSourceIDMatch(t *testing.T) {
	e := New()

	first := church.NewVenue("place-1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")
	kept, reason := e.Admit(first)
	require.True(t, kept)
	assert.Equal(t, ReasonAdmitted, reason)

	// Same source id with totally different fields is still a duplicate.
	again := church.NewVenue("place-1", "Renamed Parish", nil, "1 Other St", "Newark", "NJ", "USA")
	kept, reason = e.Admit(again)
	assert.False(t, kept)
	assert.Equal(t, ReasonDuplicateSourceID, reason)
}

func TestAdmitFingerprintMatch(t *testing.T) {
	e := New()

	// Different source systems, same place, coordinates jittered at the
	// sixth decimal.
	a := church.NewVenue("google-1", "St. Mary Church", &geo.Point{Lat: 40.620011, Lon: -74.320022}, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA")
	b := church.NewVenue("nihov-77", "Saint Mary Coptic Orthodox Church", &geo.Point{Lat: 40.620013, Lon: -74.320024}, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA")

	kept, _ := e.Admit(a)
	require.True(t, kept)

	kept, reason := e.Admit(b)
	assert.False(t, kept)
	assert.Equal(t, ReasonDuplicateFingerprint, reason)
}

func TestAdmitNoFalseMergeAcrossCities(t *testing.T) {
	e := New()

	la := church.NewVenue("", "St. Mary", &geo.Point{Lat: 34.05223, Lon: -118.24368}, "", "Los Angeles", "CA", "USA")
	ny := church.NewVenue("", "St. Mary", &geo.Point{Lat: 40.71278, Lon: -74.00597}, "", "New York", "NY", "USA")

	kept, _ := e.Admit(la)
	require.True(t, kept)
	kept, _ = e.Admit(ny)
	assert.True(t, kept, "same name in different cities must not merge")

	assert.Len(t, e.Venues(), 2)
}

func TestAdmitSignatureFormattingVariants(t *testing.T) {
	e := New()

	// Same city, same street, formatting-only name differences, and no
	// usable coordinates on the second record: the signature layer catches it.
	a := church.NewVenue("", "Saint Mary Coptic Orthodox Church", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA")
	b := church.NewVenue("", "St. Mary Church", nil, "427 West Side Ave", "Jersey City", "NJ", "USA")

	kept, _ := e.Admit(a)
	require.True(t, kept)

	kept, reason := e.Admit(b)
	assert.False(t, kept)
	assert.Equal(t, ReasonDuplicateSignature, reason)
}

func TestAdmitSameCityDifferentStreet(t *testing.T) {
	e := New()

	a := church.NewVenue("", "St. Mark", nil, "12 Elm St, Clark, NJ", "Clark", "NJ", "USA")
	b := church.NewVenue("", "St. Mark", nil, "900 Raritan Rd, Clark, NJ", "Clark", "NJ", "USA")

	kept, _ := e.Admit(a)
	require.True(t, kept)
	kept, _ = e.Admit(b)
	assert.True(t, kept, "same name and city but a different street is a distinct venue")
}

func TestAdmitUnverifiable(t *testing.T) {
	e := New()

	v := church.NewVenue("", "St. Mark", nil, "", "", "", "")
	kept, reason := e.Admit(v)
	assert.True(t, kept, "records that cannot be fingerprinted are never silently dropped")
	assert.Equal(t, ReasonUnverifiable, reason)
	assert.True(t, v.Unverifiable)
}

func TestAdmitDeterministicAcrossOrder(t *testing.T) {
	build := func() []*church.Venue {
		return []*church.Venue{
			church.NewVenue("p1", "St. Mary Church", &geo.Point{Lat: 40.620011, Lon: -74.320022}, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA"),
			church.NewVenue("p2", "Saint Mary Coptic Orthodox Church", &geo.Point{Lat: 40.620013, Lon: -74.320024}, "427 West Side Ave, Jersey City, NJ", "Jersey City", "NJ", "USA"),
			church.NewVenue("p3", "St. Mary", &geo.Point{Lat: 34.05223, Lon: -118.24368}, "100 Olive St, Los Angeles, CA", "Los Angeles", "CA", "USA"),
			church.NewVenue("", "St. Mark", nil, "", "", "", ""),
		}
	}

	admittedNames := func(order []int) map[string]bool {
		e := New()
		venues := build()
		for _, i := range order {
			e.Admit(venues[i])
		}
		names := make(map[string]bool)
		for _, v := range e.Venues() {
			names[v.NormalizedName+"|"+v.City] = true
		}
		return names
	}

	forward := admittedNames([]int{0, 1, 2, 3})
	reverse := admittedNames([]int{3, 2, 1, 0})
	assert.Equal(t, forward, reverse, "the admitted identity set must not depend on arrival order")
	assert.Len(t, forward, 3)
}

func TestAdmitEvent(t *testing.T) {
	e := New()
	venue := church.NewVenue("p1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")

	a := church.NewEvent(venue, "Food Drive", "2026-09-12", "10:00", church.EventService, "", "")
	kept, _ := e.AdmitEvent(a)
	require.True(t, kept)

	dup := church.NewEvent(venue, "  FOOD drive ", "2026-09-12", "10:00", church.EventService, "other text", "")
	kept, reason := e.AdmitEvent(dup)
	assert.False(t, kept)
	assert.Equal(t, ReasonDuplicateEvent, reason)

	otherDay := church.NewEvent(venue, "Food Drive", "2026-09-19", "10:00", church.EventService, "", "")
	kept, _ = e.AdmitEvent(otherDay)
	assert.True(t, kept)
}

func TestVerifyIdempotent(t *testing.T) {
	e := New()
	for i := 0; i < 5; i++ {
		v := church.NewVenue(fmt.Sprintf("p%d", i), fmt.Sprintf("St. Venue %d", i), &geo.Point{Lat: 40.0 + float64(i), Lon: -74.0}, "", fmt.Sprintf("City %d", i), "NJ", "USA")
		kept, _ := e.Admit(v)
		require.True(t, kept)
	}

	first := e.Verify()
	assert.Zero(t, first.Total(), "a cleanly-admitted set has nothing to drop")

	second := e.Verify()
	assert.Zero(t, second.Total(), "running the post-pass twice is a no-op")
	assert.Len(t, e.Venues(), 5)
}

func TestVerifyDropsInjectedDuplicates(t *testing.T) {
	e := New()
	a := church.NewVenue("p1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")
	kept, _ := e.Admit(a)
	require.True(t, kept)

	// Simulate an adapter bug by injecting venues that bypass Admit.
	dupFingerprint := *a
	dupFingerprint.SourceID = "other"
	dupSourceID := church.NewVenue("p1", "Somewhere Else", &geo.Point{Lat: 41.0, Lon: -75.0}, "9 Oak St", "Newark", "NJ", "USA")
	e.venues = append(e.venues, &dupFingerprint, dupSourceID)

	stats := e.Verify()
	assert.Equal(t, 1, stats.Dropped[ReasonDuplicateFingerprint])
	assert.Equal(t, 1, stats.Dropped[ReasonDuplicateSourceID])

	venues := e.Venues()
	require.Len(t, venues, 1)
	assert.Same(t, a, venues[0], "first seen by insertion order wins")
}

func TestAdmitConcurrent(t *testing.T) {
	e := New()

	// Many goroutines race to admit the same venue; exactly one may win.
	var wg sync.WaitGroup
	admitted := make(chan bool, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := church.NewVenue("place-1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")
			kept, _ := e.Admit(v)
			admitted <- kept
		}()
	}
	wg.Wait()
	close(admitted)

	wins := 0
	for kept := range admitted {
		if kept {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, e.Venues(), 1)
}
