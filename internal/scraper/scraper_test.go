package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parishPage = `<!DOCTYPE html>
<html><body>
<h2>Upcoming</h2>
<ul>
<li>Food Drive - 2026-09-12 10:00 AM - canned goods welcome</li>
<li>Youth Retreat Sep 18, 2026 7:00 pm</li>
<li>Food Drive - 2026-09-12 10:00 AM - canned goods welcome</li>
<li>Parking lot repaving on 2026-09-20</li>
<li>Annual parish picnic 10/03/2026</li>
</ul>
<p>Served by Fr. Example since 1998.</p>
</body></html>`

func testVenue(website string) *church.Venue {
	v := church.NewVenue("place-1", "St. Mary", &geo.Point{Lat: 40.62, Lon: -74.32}, "427 West Side Ave", "Jersey City", "NJ", "USA")
	v.Website = website
	return v
}

func fixedScraper() *EventScraper {
	s := New()
	s.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestFetchExtractsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(parishPage))
	}))
	defer server.Close()

	s := fixedScraper()
	records, err := s.Fetch(context.Background(), aggregator.VenueUnit(testVenue(server.URL)))
	require.NoError(t, err)

	require.Len(t, records.Events, 3, "duplicate lines and non-event prose are dropped")

	byTitle := make(map[string]*church.Event)
	for _, evt := range records.Events {
		byTitle[evt.Title] = evt
	}

	foodDrive := byTitle["Food Drive"]
	require.NotNil(t, foodDrive)
	assert.Equal(t, "2026-09-12", foodDrive.Date)
	assert.Equal(t, "10:00", foodDrive.Time)
	assert.Equal(t, church.EventService, foodDrive.Type)

	retreat := byTitle["Youth Retreat"]
	require.NotNil(t, retreat)
	assert.Equal(t, "2026-09-18", retreat.Date)
	assert.Equal(t, "19:00", retreat.Time)
	assert.Equal(t, church.EventYouth, retreat.Type)

	picnic := byTitle["Annual parish picnic"]
	require.NotNil(t, picnic)
	assert.Equal(t, "2026-10-03", picnic.Date)
	assert.Equal(t, church.TimeTBD, picnic.Time)
	assert.Equal(t, church.EventSocial, picnic.Type)
}

func TestFetchScansEventPages(t *testing.T) {
	// Homepage carries no events; the listing lives at /events and is
	// repeated on /calendar. Both duplicates and 404 paths are routine.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body><p>Welcome to our parish.</p></body></html>`))
	})
	listing := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><ul>
<li>Food Drive - 2026-09-12 10:00 AM</li>
<li>Youth Retreat Sep 25, 2026 7:00 pm</li>
</ul></body></html>`))
	}
	mux.HandleFunc("/events", listing)
	mux.HandleFunc("/calendar", listing)
	server := httptest.NewServer(mux)
	defer server.Close()

	s := fixedScraper()
	records, err := s.Fetch(context.Background(), aggregator.VenueUnit(testVenue(server.URL)))
	require.NoError(t, err)

	require.Len(t, records.Events, 2, "events repeated across pages collapse to one record")
	titles := []string{records.Events[0].Title, records.Events[1].Title}
	assert.ElementsMatch(t, []string{"Food Drive", "Youth Retreat"}, titles)
}

func TestFetchNoWebsite(t *testing.T) {
	s := New()
	records, err := s.Fetch(context.Background(), aggregator.VenueUnit(testVenue("")))
	require.NoError(t, err)
	assert.Empty(t, records.Events)
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	s := New()
	_, err := s.Fetch(context.Background(), aggregator.VenueUnit(testVenue(server.URL)))
	assert.Error(t, err)
}

func TestFetchWrongUnitKind(t *testing.T) {
	s := New()
	_, err := s.Fetch(context.Background(), aggregator.RegionUnit("NJ"))
	assert.Error(t, err)
}

func TestFetchRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := New()
	_, err := s.Fetch(ctx, aggregator.VenueUnit(testVenue(server.URL)))
	assert.Error(t, err)
}

func TestExtractDate(t *testing.T) {
	s := fixedScraper()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso", "Food drive on 2026-09-12", "2026-09-12"},
		{"us slashes", "Bake sale 9/5/2026", "2026-09-05"},
		{"two digit year", "Bake sale 9/5/26", "2026-09-05"},
		{"month name with year", "Retreat Sep 18, 2026", "2026-09-18"},
		{"month name full", "Retreat September 18, 2026", "2026-09-18"},
		{"month name no year assumes current", "Retreat Dec 5", "2026-12-05"},
		{"day first slashes rejected", "Christmas liturgy 25/12/2026", ""},
		{"impossible day rejected", "Cleanup 3/45/2026", ""},
		{"no date", "Join the choir", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.extractDate(tt.in))
		})
	}
}

func TestExtractTitleTruncatesOnRuneBoundary(t *testing.T) {
	// One leading ASCII byte shifts the cap into the middle of a
	// three-byte rune.
	title := extractTitle("x" + strings.Repeat("☦", 50))
	assert.True(t, utf8.ValidString(title))
	assert.LessOrEqual(t, len(title), maxTitleChars)
	assert.NotEmpty(t, title)
}

func TestExtractTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"morning", "starts 10:00 AM sharp", "10:00"},
		{"afternoon", "7:30 pm in the hall", "19:30"},
		{"24 hour", "doors at 18:45", "18:45"},
		{"noon", "12:00 pm lunch", "12:00"},
		{"midnight", "12:15 am praise", "00:15"},
		{"none", "time to be announced", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTime(tt.in))
		})
	}
}
