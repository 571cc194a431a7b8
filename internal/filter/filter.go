// Package filter retains records within a radius of a center point and
// imposes the deterministic output order for a discovery run: ascending by
// distance, ties broken by name. Aggregation completes in arbitrary
// concurrent order; the sort here is what makes the final result stable.
package filter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
)

// ErrInvalidRadius reports a zero or negative radius. It is an input
// validation error, not an empty result.
var ErrInvalidRadius = errors.New("radius must be greater than zero")

// VenueResult pairs a venue with its distance from the search center.
type VenueResult struct {
	Venue         *church.Venue `json:"venue"`
	DistanceMiles float64       `json:"distance_miles"`
}

// EventResult pairs an event with the distance of its venue from the search
// center. Events inherit their venue's location.
type EventResult struct {
	Event         *church.Event `json:"event"`
	DistanceMiles float64       `json:"distance_miles"`
}

// Nearby returns the venues within radiusMiles of center, sorted ascending
// by distance with name as the tiebreak. Venues without coordinates cannot
// be radius-filtered and are excluded; use All for an unfiltered pass.
func Nearby(venues []*church.Venue, center geo.Point, radiusMiles float64) ([]VenueResult, error) {
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRadius, radiusMiles)
	}

	results := make([]VenueResult, 0, len(venues))
	for _, v := range venues {
		if v.Coords == nil {
			continue
		}
		d := geo.Distance(center, *v.Coords)
		if d <= radiusMiles {
			results = append(results, VenueResult{Venue: v, DistanceMiles: d})
		}
	}

	sortVenueResults(results)
	return results, nil
}

// All returns every venue ordered deterministically: located venues sorted
// by distance from center, then unlocated venues sorted by name. This is the
// nationwide/unfiltered pass where the radius is ignored.
func All(venues []*church.Venue, center geo.Point) []VenueResult {
	located := make([]VenueResult, 0, len(venues))
	var unlocated []VenueResult
	for _, v := range venues {
		if v.Coords == nil {
			unlocated = append(unlocated, VenueResult{Venue: v, DistanceMiles: -1})
			continue
		}
		located = append(located, VenueResult{Venue: v, DistanceMiles: geo.Distance(center, *v.Coords)})
	}

	sortVenueResults(located)
	sort.Slice(unlocated, func(i, j int) bool {
		return unlocated[i].Venue.Name < unlocated[j].Venue.Name
	})
	return append(located, unlocated...)
}

// NearbyEvents returns the events whose venue lies within radiusMiles of
// center, in the same deterministic order as Nearby. Events at venues
// without coordinates are excluded.
func NearbyEvents(events []*church.Event, center geo.Point, radiusMiles float64) ([]EventResult, error) {
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRadius, radiusMiles)
	}

	results := make([]EventResult, 0, len(events))
	for _, evt := range events {
		if evt.Venue == nil || evt.Venue.Coords == nil {
			continue
		}
		d := geo.Distance(center, *evt.Venue.Coords)
		if d <= radiusMiles {
			results = append(results, EventResult{Event: evt, DistanceMiles: d})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMiles != results[j].DistanceMiles {
			return results[i].DistanceMiles < results[j].DistanceMiles
		}
		if results[i].Event.Title != results[j].Event.Title {
			return results[i].Event.Title < results[j].Event.Title
		}
		return results[i].Event.Date < results[j].Event.Date
	})
	return results, nil
}

func sortVenueResults(results []VenueResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceMiles != results[j].DistanceMiles {
			return results[i].DistanceMiles < results[j].DistanceMiles
		}
		return results[i].Venue.Name < results[j].Venue.Name
	})
}
