package config

import "strings"

// zipLocation is a resolved ZIP centroid.
type zipLocation struct {
	Name string
	Lat  float64
	Lon  float64
}

// zipTable covers metro areas with significant Coptic communities. It is
// a deliberately small offline table, not a full ZIP database; users
// elsewhere set explicit coordinates instead.
var zipTable = map[string]zipLocation{
	// New Jersey / New York
	"07302": {"Jersey City, NJ", 40.7178, -74.0431},
	"07305": {"Jersey City, NJ", 40.6976, -74.0812},
	"07008": {"Carteret, NJ", 40.5823, -74.2287},
	"07066": {"Clark, NJ", 40.6206, -74.3121},
	"07726": {"Englishtown, NJ", 40.2862, -74.3471},
	"08817": {"Edison, NJ", 40.5150, -74.3954},
	"10002": {"New York, NY", 40.7157, -73.9862},
	"11209": {"Brooklyn, NY", 40.6220, -74.0304},
	"11377": {"Woodside, NY", 40.7448, -73.9053},
	"10314": {"Staten Island, NY", 40.6089, -74.1476},

	// Mid-Atlantic / Northeast
	"19114": {"Philadelphia, PA", 40.0664, -74.9829},
	"21043": {"Ellicott City, MD", 39.2577, -76.7999},
	"22044": {"Falls Church, VA", 38.8610, -77.1545},
	"06514": {"Hamden, CT", 41.3707, -72.9320},
	"02062": {"Norwood, MA", 42.1862, -71.2058},

	// Southeast
	"30096": {"Duluth, GA", 33.9872, -84.1489},
	"33602": {"Tampa, FL", 27.9539, -82.4573},
	"28269": {"Charlotte, NC", 35.3074, -80.8037},
	"37211": {"Nashville, TN", 36.0695, -86.7251},

	// Midwest
	"60101": {"Addison, IL", 41.9314, -88.0043},
	"48306": {"Rochester Hills, MI", 42.7241, -83.1461},
	"44129": {"Parma, OH", 41.3887, -81.7307},
	"55347": {"Eden Prairie, MN", 44.8285, -93.4668},

	// Texas / Mountain
	"77084": {"Houston, TX", 29.8277, -95.6631},
	"75007": {"Carrollton, TX", 33.0048, -96.8961},
	"85032": {"Phoenix, AZ", 33.6256, -112.0043},
	"80015": {"Aurora, CO", 39.6277, -104.7861},

	// West Coast
	"90630": {"Cypress, CA", 33.8176, -118.0386},
	"91214": {"La Crescenta, CA", 34.2331, -118.2474},
	"92683": {"Westminster, CA", 33.7523, -117.9938},
	"95134": {"San Jose, CA", 37.4299, -121.9446},
	"98052": {"Redmond, WA", 47.6773, -122.1194},
	"97229": {"Portland, OR", 45.5511, -122.8105},
}

// lookupZip resolves a ZIP code to coordinates from the offline table.
func lookupZip(zip string) (zipLocation, bool) {
	loc, ok := zipTable[strings.TrimSpace(zip)]
	return loc, ok
}
