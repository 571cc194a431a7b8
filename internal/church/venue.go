package church

import (
	"time"

	"github.com/daz2d/coptic-service-events/internal/geo"
)

// Venue represents a physical church location discovered from one source.
// Venues are immutable after construction; a duplicate never overwrites an
// already-admitted original.
type Venue struct {
	SourceID       string     `json:"source_id,omitempty"` // opaque id from the originating source
	Name           string     `json:"name"`
	NormalizedName string     `json:"normalized_name"`
	Coords         *geo.Point `json:"coords,omitempty"` // nil when the source had no geocode
	Street         string     `json:"street,omitempty"`
	City           string     `json:"city,omitempty"`
	Region         string     `json:"region,omitempty"` // state or province code
	Country        string     `json:"country,omitempty"`
	Website        string     `json:"website,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Fingerprint    string     `json:"fingerprint,omitempty"`
	Unverifiable   bool       `json:"unverifiable,omitempty"` // no coordinates and no street: cannot be fingerprinted
	DiscoveredAt   time.Time  `json:"discovered_at"`
}

// NewVenue constructs a Venue with its derived identity fields populated.
// coords may be nil when the source provided no geocode.
func NewVenue(sourceID, name string, coords *geo.Point, street, city, region, country string) *Venue {
	v := &Venue{
		SourceID:       sourceID,
		Name:           name,
		NormalizedName: NormalizeName(name),
		Coords:         coords,
		Street:         street,
		City:           city,
		Region:         region,
		Country:        country,
		DiscoveredAt:   time.Now().UTC(),
	}

	normStreet := NormalizeStreet(street)
	if coords == nil && normStreet == "" {
		v.Unverifiable = true
	} else {
		v.Fingerprint = Fingerprint(v.NormalizedName, coords, normStreet)
	}

	return v
}

// Signature returns the fallback dedup key for the venue.
func (v *Venue) Signature() Signature {
	return NewSignature(v.NormalizedName, v.City, v.Region)
}

// NormalizedStreet returns the street comparison form used by signature matching.
func (v *Venue) NormalizedStreet() string {
	return NormalizeStreet(v.Street)
}

// Identity returns the stable column value used to key the venue in durable
// storage: the fingerprint when one exists, then the source id, then a hash of
// the signature so unverifiable venues still get a deterministic key.
func (v *Venue) Identity() string {
	if v.Fingerprint != "" {
		return v.Fingerprint
	}
	if v.SourceID != "" {
		return v.SourceID
	}
	sig := v.Signature()
	return hashFields(sig.Name, sig.City, sig.Region)
}
