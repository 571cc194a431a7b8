package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryPage = `<!DOCTYPE html>
<html><body>
<ul>
<li class="church-item">
  <h3>St. Mark Coptic Orthodox Church</h3>
  <a href="/parishes/st-mark">Visit</a>
  <address>481 Bergen Ave</address>
  <span>Jersey City, NJ 07305</span>
</li>
<li class="church-item">
  <h3>St. Mary &amp; St. Antonios Coptic Orthodox Church</h3>
  <a href="https://stmaryny.example.org">Website</a>
  <span>Brooklyn, NY 11209</span>
</li>
<li class="church-item">
  <h3>Annual Gala Tickets</h3>
  <a href="/gala">Buy</a>
</li>
</ul>
</body></html>`

// testDiocese serves page from an httptest server and returns a client
// whose catalogue points the NY/NJ diocese at it.
func testDiocese(t *testing.T, page string) *DioceseClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/churches", r.URL.Path)
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	return NewDioceseClient(DioceseConfig{Catalogue: []Diocese{{
		Key:          "new-york-new-jersey",
		Name:         "Diocese of New York & New Jersey",
		BaseURL:      server.URL,
		ChurchesPath: "/churches",
		States:       []string{"NY", "NJ"},
	}}})
}

func TestDioceseFetchParsesListings(t *testing.T) {
	client := testDiocese(t, directoryPage)

	records, err := client.Fetch(context.Background(), aggregator.RegionUnit("NJ"))
	require.NoError(t, err)

	// The NY parish and the non-church listing are dropped for an NJ run.
	require.Len(t, records.Venues, 1)

	v := records.Venues[0]
	assert.Equal(t, "St. Mark Coptic Orthodox Church", v.Name)
	assert.Equal(t, "Jersey City", v.City)
	assert.Equal(t, "NJ", v.Region)
	assert.Equal(t, "481 Bergen Ave", v.Street)
	assert.Contains(t, v.Website, "/parishes/st-mark")
	assert.Empty(t, v.SourceID, "directory listings carry no source id")
	assert.NotEmpty(t, v.Identity())
}

func TestDioceseFetchKeepsBothStates(t *testing.T) {
	client := testDiocese(t, directoryPage)

	records, err := client.Fetch(context.Background(), aggregator.RegionUnit("NY"))
	require.NoError(t, err)
	require.Len(t, records.Venues, 1)
	assert.Equal(t, "St. Mary & St. Antonios Coptic Orthodox Church", records.Venues[0].Name)
	assert.Equal(t, "https://stmaryny.example.org", records.Venues[0].Website)
}

func TestDioceseFetchLinkFallback(t *testing.T) {
	// No recognizable listing containers; church-named links still count.
	page := `<html><body>
<p><a href="/st-mina">St. Mina Coptic Orthodox Church</a></p>
<p><a href="/donate">Donate</a></p>
</body></html>`
	client := testDiocese(t, page)

	records, err := client.Fetch(context.Background(), aggregator.RegionUnit("NJ"))
	require.NoError(t, err)
	require.Len(t, records.Venues, 1)
	assert.Equal(t, "St. Mina Coptic Orthodox Church", records.Venues[0].Name)
	assert.True(t, records.Venues[0].Unverifiable)
}

func TestDioceseFetchUncoveredRegion(t *testing.T) {
	client := testDiocese(t, directoryPage)

	_, err := client.Fetch(context.Background(), aggregator.RegionUnit("WY"))
	assert.Error(t, err)
}

func TestDioceseFetchWrongUnitKind(t *testing.T) {
	client := NewDioceseClient(DioceseConfig{})
	_, err := client.Fetch(context.Background(), aggregator.WorkUnit{Kind: aggregator.KindVenue})
	assert.Error(t, err)
}

func TestDioceseCatalogueCoversConfiguredStates(t *testing.T) {
	client := NewDioceseClient(DioceseConfig{})
	assert.True(t, client.Covers("NJ"))
	assert.True(t, client.Covers("ca"))
	assert.False(t, client.Covers("WY"))
}

func TestDiscovererPrefersDiocese(t *testing.T) {
	fake := &fakePlaces{places: map[string]map[string]interface{}{
		"p1": placeRecord("p1", "St. Mary Coptic Orthodox Church", "427 West Side Ave, Jersey City, NJ 07305, USA", "NJ", "United States", 40.7, -74.08),
	}}
	d := &Discoverer{
		Diocese: testDiocese(t, directoryPage),
		Places:  newTestClient(t, fake),
	}

	records, err := d.Fetch(context.Background(), aggregator.RegionUnit("NJ"))
	require.NoError(t, err)
	require.Len(t, records.Venues, 1)
	assert.Equal(t, "St. Mark Coptic Orthodox Church", records.Venues[0].Name)
	assert.Zero(t, fake.detailCalls, "places API stays untouched when the directory delivers")
}

func TestDiscovererFallsBackToPlaces(t *testing.T) {
	fake := &fakePlaces{places: map[string]map[string]interface{}{
		"p1": placeRecord("p1", "St. Mary Coptic Orthodox Church", "427 West Side Ave, Jersey City, NJ 07305, USA", "NJ", "United States", 40.7, -74.08),
	}}
	d := &Discoverer{
		Diocese: testDiocese(t, `<html><body><p>Under construction</p></body></html>`),
		Places:  newTestClient(t, fake),
	}

	records, err := d.Fetch(context.Background(), aggregator.RegionUnit("NJ"))
	require.NoError(t, err)
	require.Len(t, records.Venues, 1)
	assert.Equal(t, "p1", records.Venues[0].SourceID)
}

func TestDiscovererUncoveredRegionGoesToPlaces(t *testing.T) {
	fake := &fakePlaces{places: map[string]map[string]interface{}{
		"p1": placeRecord("p1", "St. Mark Coptic Orthodox Church", "10 Elm St, Cheyenne, WY 82001, USA", "WY", "United States", 41.13, -104.8),
	}}
	d := &Discoverer{
		Diocese: testDiocese(t, directoryPage),
		Places:  newTestClient(t, fake),
	}

	records, err := d.Fetch(context.Background(), aggregator.RegionUnit("WY"))
	require.NoError(t, err)
	require.Len(t, records.Venues, 1)
	assert.Equal(t, "p1", records.Venues[0].SourceID)
}
