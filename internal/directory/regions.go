package directory

import (
	"strings"

	"github.com/daz2d/coptic-service-events/internal/church"
)

// Region is one searchable area of the worldwide directory: a US state, a
// Canadian province, an Australian state, or a country.
type Region struct {
	Code    string // unique short code used in cache keys and CLI flags
	Name    string // search label, e.g. "New Jersey" or "Ontario, Canada"
	Country string // expected country of discovered venues; empty means US
}

// regions is the full catalogue searched by a nationwide discovery run.
// Country codes that would collide with a US state or Canadian province
// abbreviation use their ISO alpha-3 form instead.
var regions = []Region{
	// United States
	{Code: "AL", Name: "Alabama"}, {Code: "AK", Name: "Alaska"},
	{Code: "AZ", Name: "Arizona"}, {Code: "AR", Name: "Arkansas"},
	{Code: "CA", Name: "California"}, {Code: "CO", Name: "Colorado"},
	{Code: "CT", Name: "Connecticut"}, {Code: "DE", Name: "Delaware"},
	{Code: "FL", Name: "Florida"}, {Code: "GA", Name: "Georgia"},
	{Code: "HI", Name: "Hawaii"}, {Code: "ID", Name: "Idaho"},
	{Code: "IL", Name: "Illinois"}, {Code: "IN", Name: "Indiana"},
	{Code: "IA", Name: "Iowa"}, {Code: "KS", Name: "Kansas"},
	{Code: "KY", Name: "Kentucky"}, {Code: "LA", Name: "Louisiana"},
	{Code: "ME", Name: "Maine"}, {Code: "MD", Name: "Maryland"},
	{Code: "MA", Name: "Massachusetts"}, {Code: "MI", Name: "Michigan"},
	{Code: "MN", Name: "Minnesota"}, {Code: "MS", Name: "Mississippi"},
	{Code: "MO", Name: "Missouri"}, {Code: "MT", Name: "Montana"},
	{Code: "NE", Name: "Nebraska"}, {Code: "NV", Name: "Nevada"},
	{Code: "NH", Name: "New Hampshire"}, {Code: "NJ", Name: "New Jersey"},
	{Code: "NM", Name: "New Mexico"}, {Code: "NY", Name: "New York"},
	{Code: "NC", Name: "North Carolina"}, {Code: "ND", Name: "North Dakota"},
	{Code: "OH", Name: "Ohio"}, {Code: "OK", Name: "Oklahoma"},
	{Code: "OR", Name: "Oregon"}, {Code: "PA", Name: "Pennsylvania"},
	{Code: "RI", Name: "Rhode Island"}, {Code: "SC", Name: "South Carolina"},
	{Code: "SD", Name: "South Dakota"}, {Code: "TN", Name: "Tennessee"},
	{Code: "TX", Name: "Texas"}, {Code: "UT", Name: "Utah"},
	{Code: "VT", Name: "Vermont"}, {Code: "VA", Name: "Virginia"},
	{Code: "WA", Name: "Washington"}, {Code: "WV", Name: "West Virginia"},
	{Code: "WI", Name: "Wisconsin"}, {Code: "WY", Name: "Wyoming"},

	// Canada
	{Code: "AB", Name: "Alberta, Canada", Country: "Canada"},
	{Code: "BC", Name: "British Columbia, Canada", Country: "Canada"},
	{Code: "MB", Name: "Manitoba, Canada", Country: "Canada"},
	{Code: "NB", Name: "New Brunswick, Canada", Country: "Canada"},
	{Code: "NL", Name: "Newfoundland and Labrador, Canada", Country: "Canada"},
	{Code: "NS", Name: "Nova Scotia, Canada", Country: "Canada"},
	{Code: "ON", Name: "Ontario, Canada", Country: "Canada"},
	{Code: "PE", Name: "Prince Edward Island, Canada", Country: "Canada"},
	{Code: "QC", Name: "Quebec, Canada", Country: "Canada"},
	{Code: "SK", Name: "Saskatchewan, Canada", Country: "Canada"},

	// Middle East
	{Code: "EG", Name: "Egypt", Country: "Egypt"},
	{Code: "JO", Name: "Jordan", Country: "Jordan"},
	{Code: "LB", Name: "Lebanon", Country: "Lebanon"},
	{Code: "PS", Name: "Palestine", Country: "Palestine"},
	{Code: "ISR", Name: "Israel", Country: "Israel"},
	{Code: "UAE", Name: "United Arab Emirates", Country: "United Arab Emirates"},
	{Code: "KW", Name: "Kuwait", Country: "Kuwait"},
	{Code: "SA", Name: "Saudi Arabia", Country: "Saudi Arabia"},
	{Code: "QA", Name: "Qatar", Country: "Qatar"},
	{Code: "BH", Name: "Bahrain", Country: "Bahrain"},
	{Code: "OM", Name: "Oman", Country: "Oman"},
	{Code: "IQ", Name: "Iraq", Country: "Iraq"},
	{Code: "SY", Name: "Syria", Country: "Syria"},

	// Europe
	{Code: "GB", Name: "United Kingdom", Country: "United Kingdom"},
	{Code: "IE", Name: "Ireland", Country: "Ireland"},
	{Code: "FR", Name: "France", Country: "France"},
	{Code: "DEU", Name: "Germany", Country: "Germany"},
	{Code: "IT", Name: "Italy", Country: "Italy"},
	{Code: "ES", Name: "Spain", Country: "Spain"},
	{Code: "PT", Name: "Portugal", Country: "Portugal"},
	{Code: "NLD", Name: "Netherlands", Country: "Netherlands"},
	{Code: "BE", Name: "Belgium", Country: "Belgium"},
	{Code: "CH", Name: "Switzerland", Country: "Switzerland"},
	{Code: "AT", Name: "Austria", Country: "Austria"},
	{Code: "GR", Name: "Greece", Country: "Greece"},
	{Code: "SE", Name: "Sweden", Country: "Sweden"},
	{Code: "NO", Name: "Norway", Country: "Norway"},
	{Code: "DK", Name: "Denmark", Country: "Denmark"},
	{Code: "FI", Name: "Finland", Country: "Finland"},
	{Code: "PL", Name: "Poland", Country: "Poland"},
	{Code: "CZ", Name: "Czech Republic", Country: "Czech"},
	{Code: "HU", Name: "Hungary", Country: "Hungary"},
	{Code: "RO", Name: "Romania", Country: "Romania"},
	{Code: "BG", Name: "Bulgaria", Country: "Bulgaria"},
	{Code: "RS", Name: "Serbia", Country: "Serbia"},
	{Code: "HR", Name: "Croatia", Country: "Croatia"},
	{Code: "SI", Name: "Slovenia", Country: "Slovenia"},

	// Africa
	{Code: "KE", Name: "Kenya", Country: "Kenya"},
	{Code: "UG", Name: "Uganda", Country: "Uganda"},
	{Code: "TZ", Name: "Tanzania", Country: "Tanzania"},
	{Code: "ET", Name: "Ethiopia", Country: "Ethiopia"},
	{Code: "SDN", Name: "Sudan", Country: "Sudan"},
	{Code: "SS", Name: "South Sudan", Country: "South Sudan"},
	{Code: "ZA", Name: "South Africa", Country: "South Africa"},
	{Code: "ZW", Name: "Zimbabwe", Country: "Zimbabwe"},
	{Code: "ZM", Name: "Zambia", Country: "Zambia"},
	{Code: "GH", Name: "Ghana", Country: "Ghana"},
	{Code: "NG", Name: "Nigeria", Country: "Nigeria"},

	// Oceania
	{Code: "AU-NSW", Name: "New South Wales, Australia", Country: "Australia"},
	{Code: "AU-VIC", Name: "Victoria, Australia", Country: "Australia"},
	{Code: "AU-QLD", Name: "Queensland, Australia", Country: "Australia"},
	{Code: "AU-WA", Name: "Western Australia", Country: "Australia"},
	{Code: "AU-SA", Name: "South Australia", Country: "Australia"},
	{Code: "NZ", Name: "New Zealand", Country: "New Zealand"},

	// Asia
	{Code: "JP", Name: "Japan", Country: "Japan"},
	{Code: "KR", Name: "South Korea", Country: "South Korea"},
	{Code: "HK", Name: "Hong Kong", Country: "Hong Kong"},
	{Code: "SG", Name: "Singapore", Country: "Singapore"},
	{Code: "MY", Name: "Malaysia", Country: "Malaysia"},
	{Code: "TH", Name: "Thailand", Country: "Thailand"},
	{Code: "PH", Name: "Philippines", Country: "Philippines"},
	{Code: "IND", Name: "India", Country: "India"},
	{Code: "PK", Name: "Pakistan", Country: "Pakistan"},

	// Americas
	{Code: "BR", Name: "Brazil", Country: "Brazil"},
	{Code: "ARG", Name: "Argentina", Country: "Argentina"},
	{Code: "CL", Name: "Chile", Country: "Chile"},
	{Code: "COL", Name: "Colombia", Country: "Colombia"},
	{Code: "PER", Name: "Peru", Country: "Peru"},
	{Code: "MX", Name: "Mexico", Country: "Mexico"},
	{Code: "CR", Name: "Costa Rica", Country: "Costa Rica"},
	{Code: "GT", Name: "Guatemala", Country: "Guatemala"},
}

var regionIndex = func() map[string]Region {
	idx := make(map[string]Region, len(regions))
	for _, r := range regions {
		idx[r.Code] = r
	}
	return idx
}()

// Regions returns the full catalogue in search order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// Lookup resolves a region code, case-insensitively.
func Lookup(code string) (Region, bool) {
	r, ok := regionIndex[strings.ToUpper(code)]
	return r, ok
}

// IsUSState reports whether the region is one of the 50 US states.
func (r Region) IsUSState() bool {
	return r.Country == ""
}

// Contains reports whether a discovered venue plausibly belongs to the
// region. Sources sometimes return matches from neighboring areas for a
// text search; those are skipped rather than admitted under the wrong
// region. A venue with no parsed state or country cannot be checked and
// passes.
func (r Region) Contains(v *church.Venue) bool {
	if r.IsUSState() {
		if v.Region == "" {
			return true
		}
		return strings.EqualFold(v.Region, r.Code)
	}
	if v.Country == "" {
		return true
	}
	return strings.Contains(v.Country, r.Country)
}
