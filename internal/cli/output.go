package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/cache"
	"github.com/daz2d/coptic-service-events/internal/filter"
)

// OutputFormat specifies the output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// DiscoverSummary is the result of a discover run.
type DiscoverSummary struct {
	RunID       string                     `json:"run_id"`
	RegionsRun  int                        `json:"regions_run"`
	Venues      int                        `json:"venues"`
	CacheHits   int                        `json:"cache_hits"`
	Failures    []aggregator.FailureReport `json:"failures,omitempty"`
	Incomplete  bool                       `json:"incomplete,omitempty"`
	VerifyDrops map[string]int             `json:"verify_drops,omitempty"`
}

// NearbyResult is the result of a nearby query.
type NearbyResult struct {
	Location    string               `json:"location"`
	RadiusMiles float64              `json:"radius_miles"`
	Count       int                  `json:"count"`
	Venues      []filter.VenueResult `json:"venues"`
}

// EventsResult is the result of an events run.
type EventsResult struct {
	Location    string                     `json:"location"`
	RadiusMiles float64                    `json:"radius_miles"`
	Churches    int                        `json:"churches_checked"`
	Count       int                        `json:"count"`
	Events      []filter.EventResult       `json:"events"`
	Failures    []aggregator.FailureReport `json:"failures,omitempty"`
	Incomplete  bool                       `json:"incomplete,omitempty"`
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteDiscover writes a discover summary in the given format.
func WriteDiscover(w io.Writer, summary *DiscoverSummary, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, summary)
	}

	fmt.Fprintf(w, "Discovery run %s\n", summary.RunID)
	fmt.Fprintf(w, "  Regions searched: %d (%d served from cache)\n", summary.RegionsRun, summary.CacheHits)
	fmt.Fprintf(w, "  Churches stored:  %d\n", summary.Venues)

	for reason, n := range summary.VerifyDrops {
		fmt.Fprintf(w, "  Dropped %d as %s\n", n, reason)
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(w, "  FAILED %s (%s): %s\n", f.Unit, f.Class, f.Err)
	}
	if summary.Incomplete {
		fmt.Fprintln(w, "  Run interrupted; results are partial.")
	}
	return nil
}

// WriteNearby writes a nearby venue listing in the given format.
func WriteNearby(w io.Writer, result *NearbyResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	if result.Count == 0 {
		fmt.Fprintf(w, "No churches found within %.0f miles of %s.\n", result.RadiusMiles, result.Location)
		return nil
	}

	fmt.Fprintf(w, "Found %d churches within %.0f miles of %s:\n\n", result.Count, result.RadiusMiles, result.Location)
	for i, r := range result.Venues {
		v := r.Venue
		fmt.Fprintf(w, "%d. %s (%.1f mi)\n", i+1, v.Name, r.DistanceMiles)
		if v.Street != "" || v.City != "" {
			fmt.Fprintf(w, "   %s, %s, %s\n", v.Street, v.City, v.Region)
		}
		if v.Phone != "" {
			fmt.Fprintf(w, "   %s\n", v.Phone)
		}
		if v.Website != "" {
			fmt.Fprintf(w, "   %s\n", v.Website)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteEvents writes an event listing in the given format.
func WriteEvents(w io.Writer, result *EventsResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	fmt.Fprintf(w, "Checked %d churches within %.0f miles of %s.\n", result.Churches, result.RadiusMiles, result.Location)

	if result.Count == 0 {
		fmt.Fprintln(w, "No service events found.")
	} else {
		fmt.Fprintf(w, "Found %d service events:\n\n", result.Count)
		for _, r := range result.Events {
			e := r.Event
			when := e.Date
			if e.Time != "" {
				when += " " + e.Time
			}
			fmt.Fprintf(w, "  %s  %-12s %s\n", when, e.Type, e.Title)
			fmt.Fprintf(w, "  %*s  at %s (%.1f mi)\n\n", len(when), "", e.Venue.Name, r.DistanceMiles)
		}
	}

	for _, f := range result.Failures {
		fmt.Fprintf(w, "FAILED %s (%s): %s\n", f.Unit, f.Class, f.Err)
	}
	if result.Incomplete {
		fmt.Fprintln(w, "Run interrupted; results are partial.")
	}
	return nil
}

// WriteCacheStats writes cache statistics in the given format.
func WriteCacheStats(w io.Writer, stats cache.Stats, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, stats)
	}

	fmt.Fprintf(w, "Cache entries: %d\n", stats.Entries)
	fmt.Fprintf(w, "  Regions:  %d\n", stats.Regions)
	fmt.Fprintf(w, "  Contacts: %d\n", stats.Contacts)
	fmt.Fprintf(w, "  Expired:  %d\n", stats.Expired)
	return nil
}
