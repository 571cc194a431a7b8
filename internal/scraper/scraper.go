// Package scraper implements the source adapter that discovers service
// events on individual church websites. Markup across parishes is wildly
// inconsistent, so extraction is heuristic: scan text nodes for date
// patterns near service keywords and build candidate events, leaving
// dedup entirely to the engine downstream.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/classify"
)

const (
	// UserAgent identifies the crawler to church websites.
	UserAgent = "coptic-service-events/1.0 (github.com/daz2d/coptic-service-events)"

	defaultTimeout = 30 * time.Second
)

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	usDateRe      = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2})(?:,?\s*(\d{4}))?`)
	clockTimeRe   = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)?`)
	monthNumber   = map[string]time.Month{"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6, "jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12}
	maxTitleChars = 120
)

// eventPagePaths are the site paths where parishes commonly publish event
// listings. Every venue fetch tries the homepage plus each of these;
// most return 404 on any given site.
var eventPagePaths = []string{
	"/events",
	"/calendar",
	"/events-calendar",
	"/upcoming-events",
	"/news-events",
	"/activities",
	"/ministries/events",
	"/community/events",
}

// EventScraper fetches a venue's website and extracts candidate events.
// Safe for concurrent use by aggregator workers.
type EventScraper struct {
	client *http.Client
	now    func() time.Time
}

// New creates an EventScraper with a default HTTP client.
func New() *EventScraper {
	return &EventScraper{
		client: &http.Client{Timeout: defaultTimeout},
		now:    time.Now,
	}
}

// Fetch implements aggregator.SourceAdapter for venue work units. Venues
// without a website yield no events and no error; that is a normal state
// for small parishes, not a failure. The homepage and the common event
// page paths are all tried; an event announced on more than one page
// still yields a single record.
func (s *EventScraper) Fetch(ctx context.Context, unit aggregator.WorkUnit) (aggregator.Records, error) {
	if unit.Kind != aggregator.KindVenue || unit.Venue == nil {
		return aggregator.Records{}, fmt.Errorf("event scraper got %s unit", unit.Kind)
	}

	venue := unit.Venue
	if venue.Website == "" {
		return aggregator.Records{}, nil
	}

	var (
		events   []*church.Event
		seen     = make(map[string]bool)
		fetched  int
		firstErr error
	)
	for _, pageURL := range eventPages(venue.Website) {
		if err := ctx.Err(); err != nil {
			return aggregator.Records{}, err
		}

		doc, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fetched++
		events = append(events, s.extractEvents(doc, venue, seen)...)
	}

	if fetched == 0 {
		return aggregator.Records{}, firstErr
	}
	return aggregator.Records{Events: events}, nil
}

// eventPages returns the URLs tried for a venue: the homepage first,
// then the common event page paths relative to it.
func eventPages(website string) []string {
	urls := []string{website}
	base := strings.TrimSuffix(website, "/")
	for _, path := range eventPagePaths {
		urls = append(urls, base+path)
	}
	return urls
}

func (s *EventScraper) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

// extractEvents scans likely event containers for lines that carry both a
// date and a service keyword. seen carries dedup keys across the pages of
// one venue.
func (s *EventScraper) extractEvents(doc *goquery.Document, venue *church.Venue, seen map[string]bool) []*church.Event {
	var events []*church.Event

	doc.Find("li, p, td, h2, h3, h4, div.event, article").Each(func(_ int, sel *goquery.Selection) {
		for _, line := range strings.Split(strings.TrimSpace(sel.Text()), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || len(line) > 400 {
				continue
			}

			date := s.extractDate(line)
			if date == "" || !classify.ServiceKeywords(line) {
				continue
			}

			evt := church.NewEvent(
				venue,
				extractTitle(line),
				date,
				extractTime(line),
				classify.Classify(line, ""),
				line,
				venue.Website,
			)
			if seen[evt.Key()] {
				continue
			}
			seen[evt.Key()] = true
			events = append(events, evt)
		}
	})

	return events
}

// extractDate finds the first recognizable date in line and renders it as
// ISO YYYY-MM-DD. Month-name dates without a year assume the current year.
func (s *EventScraper) extractDate(line string) string {
	if m := isoDateRe.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}

	if m := usDateRe.FindStringSubmatch(line); m != nil {
		month, day := atoiSafe(m[1]), atoiSafe(m[2])
		// Day-first dates like 25/12/2024 fall through rather than
		// producing an impossible month.
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			year := m[3]
			if len(year) == 2 {
				year = "20" + year
			}
			return fmt.Sprintf("%s-%02d-%02d", year, month, day)
		}
	}

	if m := monthDateRe.FindStringSubmatch(line); m != nil {
		month := monthNumber[strings.ToLower(m[1])]
		year := m[3]
		if year == "" {
			year = fmt.Sprintf("%d", s.now().Year())
		}
		return fmt.Sprintf("%s-%02d-%02d", year, month, atoiSafe(m[2]))
	}

	return ""
}

// extractTime finds the first clock time in line as HH:MM, or "" when the
// source announced no time.
func extractTime(line string) string {
	m := clockTimeRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}

	hour := atoiSafe(m[1])
	minute := m[2]
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 {
		return ""
	}
	return fmt.Sprintf("%02d:%s", hour, minute)
}

// extractTitle trims a line down to a usable event title: text before the
// first date/time noise, capped in length.
func extractTitle(line string) string {
	title := line
	for _, re := range []*regexp.Regexp{isoDateRe, usDateRe, monthDateRe, clockTimeRe} {
		if loc := re.FindStringIndex(title); loc != nil && loc[0] > 0 {
			title = title[:loc[0]]
		}
	}
	title = strings.Trim(strings.TrimSpace(title), "-–:,|")
	title = strings.TrimSpace(title)
	if title == "" {
		title = line
	}
	if len(title) > maxTitleChars {
		cut := maxTitleChars
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = strings.TrimSpace(title[:cut])
	}
	return title
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
