package aggregator

import (
	"fmt"
	"time"

	"github.com/daz2d/coptic-service-events/internal/cache"
	"github.com/daz2d/coptic-service-events/internal/church"
)

// UnitKind distinguishes the two shapes of discovery work.
type UnitKind string

const (
	// KindRegion discovers all venues in a named area.
	KindRegion UnitKind = "region"
	// KindVenue discovers events at one known venue.
	KindVenue UnitKind = "venue"
)

// WorkUnit is one schedulable item of discovery work: a region to list or a
// venue whose events should be scraped. It carries the cache key and TTL the
// worker uses for read-through/write-through.
type WorkUnit struct {
	Kind     UnitKind
	Region   string        // region code, set when Kind is KindRegion
	Venue    *church.Venue // set when Kind is KindVenue
	CacheKey string        // empty disables caching for this unit
	CacheTTL time.Duration
}

// RegionUnit builds a work unit for discovering venues in a region.
func RegionUnit(code string) WorkUnit {
	return WorkUnit{
		Kind:     KindRegion,
		Region:   code,
		CacheKey: cache.RegionKey(code),
		CacheTTL: cache.RegionTTL,
	}
}

// VenueUnit builds a work unit for discovering events at a venue.
func VenueUnit(v *church.Venue) WorkUnit {
	return WorkUnit{
		Kind:     KindVenue,
		Venue:    v,
		CacheKey: cache.ContactKey(v.Identity()),
		CacheTTL: cache.ContactTTL,
	}
}

// ID returns the identity used in failure reports and logs.
func (u WorkUnit) ID() string {
	switch u.Kind {
	case KindRegion:
		return fmt.Sprintf("region:%s", u.Region)
	case KindVenue:
		if u.Venue != nil {
			return fmt.Sprintf("venue:%s", u.Venue.Identity())
		}
	}
	return "unit:unknown"
}

// validate reports whether the unit is well-formed.
func (u WorkUnit) validate() error {
	switch u.Kind {
	case KindRegion:
		if u.Region == "" {
			return fmt.Errorf("%w: region unit without a region code", ErrInvalidInput)
		}
	case KindVenue:
		if u.Venue == nil {
			return fmt.Errorf("%w: venue unit without a venue", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown unit kind %q", ErrInvalidInput, u.Kind)
	}
	return nil
}
