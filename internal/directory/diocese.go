package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/logger"
)

const dioceseUserAgent = "coptic-service-events/1.0 (github.com/daz2d/coptic-service-events)"

// Diocese is one diocese whose website publishes a directory of its
// parishes.
type Diocese struct {
	Key          string
	Name         string
	BaseURL      string
	ChurchesPath string
	States       []string // US state codes the diocese covers
}

// dioceses is the built-in catalogue of directory sites. Listing markup
// varies per site, so parsing tries common container patterns before
// falling back to bare links.
var dioceses = []Diocese{
	{
		Key:          "southern-usa",
		Name:         "Southern USA Diocese",
		BaseURL:      "https://suscopts.org",
		ChurchesPath: "/churches",
		States:       []string{"GA", "AL", "FL", "SC", "NC", "TN", "KY", "LA", "MS", "AR"},
	},
	{
		Key:          "los-angeles",
		Name:         "Diocese of Los Angeles",
		BaseURL:      "https://lacopts.org",
		ChurchesPath: "/churches",
		States:       []string{"CA"},
	},
	{
		Key:          "new-york-new-jersey",
		Name:         "Diocese of New York & New Jersey",
		BaseURL:      "https://dioceseofnynj.org",
		ChurchesPath: "/churches",
		States:       []string{"NY", "NJ", "PA", "CT"},
	},
}

// DioceseConfig carries the diocese client's settings. Zero values fall
// back to the built-in catalogue and a default HTTP client.
type DioceseConfig struct {
	MaxPerRegion int
	HTTPClient   *http.Client
	Catalogue    []Diocese // nil uses the built-in catalogue
}

// DioceseClient discovers venues by scraping diocese directory websites.
// Implements aggregator.SourceAdapter for region work units covered by a
// diocese. Safe for concurrent use.
type DioceseClient struct {
	maxPerRegion int
	http         *http.Client
	catalogue    []Diocese
}

// NewDioceseClient builds a diocese directory client from cfg.
func NewDioceseClient(cfg DioceseConfig) *DioceseClient {
	c := &DioceseClient{
		maxPerRegion: cfg.MaxPerRegion,
		http:         cfg.HTTPClient,
		catalogue:    cfg.Catalogue,
	}
	if c.maxPerRegion <= 0 {
		c.maxPerRegion = defaultMaxPerRegion
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.catalogue == nil {
		c.catalogue = dioceses
	}
	return c
}

// Covers reports whether some diocese directory lists churches for the
// region code.
func (c *DioceseClient) Covers(code string) bool {
	_, ok := c.dioceseFor(code)
	return ok
}

func (c *DioceseClient) dioceseFor(code string) (Diocese, bool) {
	for _, d := range c.catalogue {
		for _, state := range d.States {
			if strings.EqualFold(state, code) {
				return d, true
			}
		}
	}
	return Diocese{}, false
}

// Fetch implements aggregator.SourceAdapter for region work units.
func (c *DioceseClient) Fetch(ctx context.Context, unit aggregator.WorkUnit) (aggregator.Records, error) {
	if unit.Kind != aggregator.KindRegion {
		return aggregator.Records{}, fmt.Errorf("diocese client got %s unit", unit.Kind)
	}

	region, ok := Lookup(unit.Region)
	if !ok {
		return aggregator.Records{}, fmt.Errorf("unknown region %q", unit.Region)
	}
	diocese, ok := c.dioceseFor(region.Code)
	if !ok {
		return aggregator.Records{}, fmt.Errorf("no diocese directory covers region %q", region.Code)
	}

	doc, err := c.fetchDirectory(ctx, diocese)
	if err != nil {
		return aggregator.Records{}, err
	}

	var venues []*church.Venue
	for _, v := range parseDirectory(doc, diocese) {
		if !region.Contains(v) {
			logger.Debug("venue outside searched region", logger.Fields{
				"venue":  v.Name,
				"region": region.Code,
			})
			continue
		}
		venues = append(venues, v)
		if len(venues) >= c.maxPerRegion {
			break
		}
	}

	return aggregator.Records{Venues: venues}, nil
}

func (c *DioceseClient) fetchDirectory(ctx context.Context, d Diocese) (*goquery.Document, error) {
	pageURL := d.BaseURL + d.ChurchesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", dioceseUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s directory: %w", d.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s directory: unexpected status %d", d.Name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s directory: %w", d.Name, err)
	}
	return doc, nil
}

// listingSelectors are the container patterns tried in order; the first
// selector that yields any venue wins.
var listingSelectors = []string{
	"div.church-listing",
	"article.church",
	"li.church-item",
	"article.post",
}

var cityStateRe = regexp.MustCompile(`([A-Z][a-zA-Z .]+),\s*([A-Z]{2})\b`)

// parseDirectory extracts church venues from a diocese directory page.
func parseDirectory(doc *goquery.Document, d Diocese) []*church.Venue {
	for _, selector := range listingSelectors {
		var venues []*church.Venue
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if v := venueFromListing(sel, d); v != nil {
				venues = append(venues, v)
			}
		})
		if len(venues) > 0 {
			return venues
		}
	}
	return venuesFromLinks(doc, d)
}

// venueFromListing builds a venue from one directory container, or nil
// when the container does not describe a church.
func venueFromListing(sel *goquery.Selection, d Diocese) *church.Venue {
	name := strings.TrimSpace(sel.Find("h1, h2, h3, h4, a").First().Text())
	if !looksLikeChurch(name) {
		return nil
	}

	var street string
	if addr := sel.Find("address").First(); addr.Length() > 0 {
		street = strings.TrimSpace(addr.Text())
	}

	var city, state string
	if m := cityStateRe.FindStringSubmatch(sel.Text()); m != nil {
		city, state = strings.TrimSpace(m[1]), m[2]
	}

	v := church.NewVenue("", name, nil, street, city, state, "USA")
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
		v.Website = resolveLink(d.BaseURL, href)
	}
	return v
}

// venuesFromLinks is the fallback for directory pages without recognizable
// listing markup: any link whose text reads like a church name.
func venuesFromLinks(doc *goquery.Document, d Diocese) []*church.Venue {
	var venues []*church.Venue
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if !looksLikeChurch(name) {
			return
		}
		href, _ := sel.Attr("href")
		website := resolveLink(d.BaseURL, href)
		if website == "" {
			return
		}
		v := church.NewVenue("", name, nil, "", "", "", "USA")
		v.Website = website
		venues = append(venues, v)
	})
	return venues
}

func looksLikeChurch(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range []string{"st.", "saint", "church", "coptic", "orthodox"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// resolveLink makes href absolute against the diocese base URL. Anchors
// and non-HTTP schemes return "".
func resolveLink(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// Discoverer routes region discovery diocese-first: regions a diocese
// directory covers are scraped there, with the places API taking over
// when the directory fails or lists nothing, and serving every other
// region directly. Implements aggregator.SourceAdapter.
type Discoverer struct {
	Diocese *DioceseClient
	Places  *Client
}

// Fetch implements aggregator.SourceAdapter for region work units.
func (d *Discoverer) Fetch(ctx context.Context, unit aggregator.WorkUnit) (aggregator.Records, error) {
	if d.Diocese != nil && d.Diocese.Covers(unit.Region) {
		records, err := d.Diocese.Fetch(ctx, unit)
		if err == nil && len(records.Venues) > 0 {
			return records, nil
		}
		if ctx.Err() != nil {
			return aggregator.Records{}, ctx.Err()
		}
		if d.Places == nil {
			return records, err
		}
		if err != nil {
			logger.Warn("diocese directory failed, trying places", logger.Fields{
				"region": unit.Region,
				"error":  err.Error(),
			})
		}
	}

	if d.Places == nil {
		return aggregator.Records{}, fmt.Errorf("no discovery source for region %q", unit.Region)
	}
	return d.Places.Fetch(ctx, unit)
}
