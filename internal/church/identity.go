package church

import (
	"crypto/sha1"
	"fmt"
	"strconv"
	"strings"

	"github.com/daz2d/coptic-service-events/internal/geo"
)

// fingerprintLen is the number of hex characters kept from the hash,
// a 128-bit-equivalent key. Collisions are negligible at real-world venue
// cardinality (hundreds to low thousands).
const fingerprintLen = 32

// Fingerprint computes the strongest dedup key for a venue: a stable hash of
// the normalized name, coordinates rounded to five decimal degrees, and the
// normalized street.
// Identical venues geocoded with sub-meter jitter hash the same; distinct
// venues a street apart do not. Absent coordinates contribute empty fields so
// the fingerprint stays a pure function of its inputs.
func Fingerprint(normalizedName string, coords *geo.Point, normalizedStreet string) string {
	var lat, lon string
	if coords != nil {
		lat = formatCoord(coords.Lat)
		lon = formatCoord(coords.Lon)
	}
	return hashFields(normalizedName, lat, lon, normalizedStreet)
}

// formatCoord renders a coordinate rounded to the hashing precision. The
// textual form is fixed-width so the same coordinate always hashes the same
// across platforms.
func formatCoord(coord float64) string {
	return strconv.FormatFloat(geo.Round(coord), 'f', geo.CoordPrecision, 64)
}

// hashFields joins fields with "|" and returns the truncated hex SHA-1.
func hashFields(fields ...string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join(fields, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))[:fingerprintLen]
}

// Signature is the fallback dedup key: normalized name plus lowercased city
// and uppercased region. Two distinct venues legitimately share a name across
// cities, so a signature match alone never merges; the street comparison
// arbitrates.
type Signature struct {
	Name   string
	City   string
	Region string
}

// NewSignature builds a Signature from a normalized name and raw city/region.
func NewSignature(normalizedName, city, region string) Signature {
	return Signature{
		Name:   normalizedName,
		City:   strings.ToLower(strings.TrimSpace(city)),
		Region: strings.ToUpper(strings.TrimSpace(region)),
	}
}

// Valid reports whether the signature carries enough information to be used
// as a matching key.
func (s Signature) Valid() bool {
	return s.Name != "" && s.City != ""
}
