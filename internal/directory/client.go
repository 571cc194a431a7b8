// Package directory discovers church venues region by region from two
// sources: diocese directory websites for the regions a diocese covers,
// and a places-style HTTP API (text search for candidates, then a detail
// fetch per candidate) everywhere else. It implements the region half of
// the aggregator's source adapter; the scraper package covers the venue
// half.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/daz2d/coptic-service-events/internal/logger"
)

const (
	// DefaultBaseURL points at the production places API.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	defaultMaxPerRegion = 100
	defaultTimeout      = 30 * time.Second

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"

	closedPermanently = "CLOSED_PERMANENTLY"
)

// Config carries the client's connection settings. Zero values fall back
// to production defaults; APIKey is the only required field.
type Config struct {
	BaseURL      string
	APIKey       string
	MaxPerRegion int           // cap on venues returned per region
	HTTPClient   *http.Client  // nil uses a 30s-timeout client
	Limiter      *rate.Limiter // optional pacing across detail fetches
}

// Client searches the places API for churches in a region. Implements
// aggregator.SourceAdapter for region work units. Safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	maxPerRegion int
	http         *http.Client
	limiter      *rate.Limiter
}

// NewClient builds a directory client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		maxPerRegion: cfg.MaxPerRegion,
		http:         cfg.HTTPClient,
		limiter:      cfg.Limiter,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.maxPerRegion <= 0 {
		c.maxPerRegion = defaultMaxPerRegion
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

// queries returns the text searches run for a region. US states get a few
// phrasings to catch parishes whose listings omit "Orthodox"; countries
// get a single broad query.
func queries(r Region) []string {
	if !r.IsUSState() {
		return []string{fmt.Sprintf("Coptic Orthodox Church in %s", r.Name)}
	}
	return []string{
		fmt.Sprintf("Coptic Orthodox Church in %s", r.Name),
		fmt.Sprintf("Coptic Church %s", r.Name),
		fmt.Sprintf("St. Mary Coptic Church %s", r.Name),
		fmt.Sprintf("St. Mark Coptic Church %s", r.Name),
	}
}

// Fetch implements aggregator.SourceAdapter for region work units.
func (c *Client) Fetch(ctx context.Context, unit aggregator.WorkUnit) (aggregator.Records, error) {
	if unit.Kind != aggregator.KindRegion {
		return aggregator.Records{}, fmt.Errorf("directory client got %s unit", unit.Kind)
	}

	region, ok := Lookup(unit.Region)
	if !ok {
		return aggregator.Records{}, fmt.Errorf("unknown region %q", unit.Region)
	}

	var venues []*church.Venue
	seen := make(map[string]bool)

	for _, query := range queries(region) {
		results, err := c.textSearch(ctx, query)
		if err != nil {
			return aggregator.Records{}, err
		}

		for _, place := range results {
			if place.PlaceID == "" || seen[place.PlaceID] {
				continue
			}
			seen[place.PlaceID] = true

			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return aggregator.Records{}, err
				}
			}

			details, err := c.placeDetails(ctx, place.PlaceID)
			if err != nil {
				if ctx.Err() != nil {
					return aggregator.Records{}, ctx.Err()
				}
				logger.Warn("place details failed", logger.Fields{
					"place_id": place.PlaceID,
					"error":    err.Error(),
				})
				continue
			}
			if details == nil || details.BusinessStatus == closedPermanently {
				continue
			}

			venue := details.venue()
			if !region.Contains(venue) {
				logger.Debug("venue outside searched region", logger.Fields{
					"venue":  venue.Name,
					"region": region.Code,
				})
				continue
			}

			venues = append(venues, venue)
			if len(venues) >= c.maxPerRegion {
				return aggregator.Records{Venues: venues}, nil
			}
		}
	}

	return aggregator.Records{Venues: venues}, nil
}

type searchResult struct {
	PlaceID string `json:"place_id"`
}

type searchResponse struct {
	Status  string         `json:"status"`
	Results []searchResult `json:"results"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type placeDetails struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Phone             string             `json:"formatted_phone_number"`
	InternationalTel  string             `json:"international_phone_number"`
	Website           string             `json:"website"`
	BusinessStatus    string             `json:"business_status"`
	AddressComponents []addressComponent `json:"address_components"`
}

type detailsResponse struct {
	Status string        `json:"status"`
	Result *placeDetails `json:"result"`
}

func (c *Client) textSearch(ctx context.Context, query string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)

	var resp searchResponse
	if err := c.getJSON(ctx, "/textsearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("text search %q: %w", query, err)
	}

	switch resp.Status {
	case statusOK:
		return resp.Results, nil
	case statusZeroResults:
		return nil, nil
	default:
		return nil, fmt.Errorf("text search %q: status %s", query, resp.Status)
	}
}

var detailFields = strings.Join([]string{
	"place_id", "name", "formatted_address", "geometry",
	"formatted_phone_number", "international_phone_number",
	"website", "address_components", "business_status",
}, ",")

func (c *Client) placeDetails(ctx context.Context, placeID string) (*placeDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailFields)
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.getJSON(ctx, "/details/json", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, fmt.Errorf("place details: status %s", resp.Status)
	}
	return resp.Result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// venue converts place details into a Venue. City/region/country come from
// the structured address components when present, with a comma-split of
// the formatted address as fallback.
func (d *placeDetails) venue() *church.Venue {
	var city, regionCode, country string
	for _, comp := range d.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				city = comp.LongName
			case "administrative_area_level_1":
				regionCode = comp.ShortName
			case "country":
				country = comp.LongName
			}
		}
	}

	street, addrCity, addrRegion, addrCountry := parseAddress(d.FormattedAddress)
	if city == "" {
		city = addrCity
	}
	if regionCode == "" {
		regionCode = addrRegion
	}
	if country == "" {
		country = addrCountry
	}

	var coords *geo.Point
	if d.Geometry.Location.Lat != 0 || d.Geometry.Location.Lng != 0 {
		coords = &geo.Point{Lat: d.Geometry.Location.Lat, Lon: d.Geometry.Location.Lng}
	}

	v := church.NewVenue(d.PlaceID, d.Name, coords, street, city, regionCode, country)
	v.Website = d.Website
	v.Phone = d.Phone
	if v.Phone == "" {
		v.Phone = d.InternationalTel
	}
	return v
}

// parseAddress splits a formatted address of the shape
// "427 West Side Ave, Jersey City, NJ 07305, USA" into its parts. The
// region part drops a trailing postal code.
func parseAddress(addr string) (street, city, region, country string) {
	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 0:
		return "", "", "", ""
	case 1:
		return parts[0], "", "", ""
	case 2:
		return parts[0], parts[1], "", ""
	case 3:
		street, city, region = parts[0], parts[1], parts[2]
	default:
		street, city, region = parts[0], parts[1], parts[2]
		country = parts[len(parts)-1]
	}

	if fields := strings.Fields(region); len(fields) > 0 {
		region = fields[0]
	}
	return street, city, region, country
}
