package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daz2d/coptic-service-events/internal/config"
	"github.com/daz2d/coptic-service-events/internal/filter"
	"github.com/daz2d/coptic-service-events/internal/geo"
	"github.com/daz2d/coptic-service-events/internal/storage"
)

var (
	flagRadius float64
	flagZip    string
	flagLat    float64
	flagLon    float64
)

func newNearbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List stored churches near a location",
		Long: `Query the local database for churches within a radius of the
configured location. Requires a prior discover run; no network source
is consulted.`,
		RunE: runNearby,
	}

	addLocationFlags(cmd)
	return cmd
}

// addLocationFlags registers the shared center/radius overrides.
func addLocationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&flagRadius, "radius", 0, "Search radius in miles (default from config)")
	cmd.Flags().StringVar(&flagZip, "zip", "", "ZIP code of the search center")
	cmd.Flags().Float64Var(&flagLat, "lat", 0, "Latitude of the search center")
	cmd.Flags().Float64Var(&flagLon, "lon", 0, "Longitude of the search center")
}

// resolveSearch applies the location flag overrides and resolves the
// search center. ZIP and explicit coordinates from flags replace the
// configured ones wholesale.
func resolveSearch(cfg config.Config) (geo.Point, string, float64, error) {
	loc := cfg.Location
	if flagZip != "" {
		loc.ZipCode = flagZip
		loc.Latitude, loc.Longitude = 0, 0
	}
	if flagLat != 0 || flagLon != 0 {
		loc.Latitude, loc.Longitude = flagLat, flagLon
	}
	if flagRadius != 0 {
		loc.RadiusMiles = flagRadius
	}

	center, name, err := loc.Center()
	if err != nil {
		return geo.Point{}, "", 0, err
	}
	return center, name, loc.RadiusMiles, nil
}

func runNearby(cmd *cobra.Command, args []string) error {
	cfg, format, err := setup()
	if err != nil {
		return err
	}

	center, name, radius, err := resolveSearch(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	venues, err := store.VenuesWithinRadius(cmd.Context(), center, radius)
	if err != nil {
		return err
	}

	results, err := filter.Nearby(venues, center, radius)
	if err != nil {
		return err
	}

	out := &NearbyResult{
		Location:    name,
		RadiusMiles: radius,
		Count:       len(results),
		Venues:      results,
	}
	if err := WriteNearby(os.Stdout, out, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
