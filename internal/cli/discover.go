package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/config"
	"github.com/daz2d/coptic-service-events/internal/dedupe"
	"github.com/daz2d/coptic-service-events/internal/directory"
	"github.com/daz2d/coptic-service-events/internal/logger"
	"github.com/daz2d/coptic-service-events/internal/storage"
)

var (
	flagConcurrency  int
	flagTimeout      time.Duration
	flagMaxPerRegion int
	flagRetries      int
	flagSource       string
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [region...]",
		Short: "Discover churches region by region and store them",
		Long: `Discover churches in the named regions (or the full worldwide
catalogue when none are given), deduplicate the results, and store them
in the local database. Regions covered by a diocese directory are
scraped from it first, with the places API as fallback and for every
other region. Region searches are cached, so repeating a run within the
cache window costs no API calls.`,
		RunE: runDiscover,
	}

	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Worker pool size (default from config)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Per-region fetch timeout (default from config)")
	cmd.Flags().IntVar(&flagMaxPerRegion, "max-per-region", 0, "Cap on venues per region (default from config)")
	cmd.Flags().IntVar(&flagRetries, "retries", 0, "Fetch attempts per region (0 disables retrying)")
	cmd.Flags().StringVar(&flagSource, "source", "auto", "Discovery source: auto, places, or diocese")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, format, err := setup()
	if err != nil {
		return err
	}

	if flagConcurrency > 0 {
		cfg.Discovery.Concurrency = flagConcurrency
	}
	if flagTimeout > 0 {
		cfg.Discovery.TimeoutSeconds = int(flagTimeout / time.Second)
	}
	if flagMaxPerRegion > 0 {
		cfg.Discovery.MaxPerRegion = flagMaxPerRegion
	}

	units, err := discoveryUnits(args)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	adapter, err := discoveryAdapter(cfg)
	if err != nil {
		return err
	}

	opts := aggregator.Options{
		MaxConcurrency: cfg.Discovery.Concurrency,
		TaskTimeout:    cfg.Discovery.Timeout(),
		Cache:          openCache(cfg.Cache.Path),
		Metrics:        logger.NewMetrics(),
	}
	if flagRetries > 1 {
		opts.Retry = &aggregator.RetryPolicy{MaxAttempts: flagRetries}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := dedupe.New()
	result, err := aggregator.Run(ctx, units, adapter, engine, opts)
	if err != nil {
		return err
	}

	if err := store.SaveVenues(ctx, result.Venues); err != nil {
		return fmt.Errorf("saving venues: %w", err)
	}

	summary := &DiscoverSummary{
		RunID:       result.RunID,
		RegionsRun:  result.UnitsRun,
		Venues:      len(result.Venues),
		CacheHits:   result.CacheHits,
		Failures:    result.Failures,
		Incomplete:  result.Incomplete,
		VerifyDrops: result.VerifyDrops,
	}
	if err := WriteDiscover(os.Stdout, summary, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if result.Incomplete || len(result.Failures) > 0 {
		os.Exit(ExitPartial)
	}
	return nil
}

// discoveryAdapter builds the region source for the --source mode:
// diocese directories first with the places API as fallback (auto), or
// either source alone. Only the diocese-only mode runs without an API key.
func discoveryAdapter(cfg config.Config) (aggregator.SourceAdapter, error) {
	switch flagSource {
	case "auto", "places", "diocese":
	default:
		return nil, fmt.Errorf("unknown discovery source %q: want auto, places, or diocese", flagSource)
	}

	diocese := directory.NewDioceseClient(directory.DioceseConfig{
		MaxPerRegion: cfg.Discovery.MaxPerRegion,
	})

	if flagSource == "diocese" {
		return diocese, nil
	}

	if cfg.Places.APIKey == "" {
		return nil, fmt.Errorf("no places API key configured: set places.apiKey or PLACES_API_KEY (or use --source diocese)")
	}

	var limiter *rate.Limiter
	if cfg.Discovery.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Discovery.RequestsPerSecond), 1)
	}
	places := directory.NewClient(directory.Config{
		BaseURL:      cfg.Places.BaseURL,
		APIKey:       cfg.Places.APIKey,
		MaxPerRegion: cfg.Discovery.MaxPerRegion,
		Limiter:      limiter,
	})

	if flagSource == "places" {
		return places, nil
	}
	return &directory.Discoverer{Diocese: diocese, Places: places}, nil
}

// discoveryUnits resolves region arguments to work units, defaulting to
// the full catalogue.
func discoveryUnits(args []string) ([]aggregator.WorkUnit, error) {
	if len(args) == 0 {
		regions := directory.Regions()
		units := make([]aggregator.WorkUnit, 0, len(regions))
		for _, r := range regions {
			units = append(units, aggregator.RegionUnit(r.Code))
		}
		return units, nil
	}

	units := make([]aggregator.WorkUnit, 0, len(args))
	for _, arg := range args {
		r, ok := directory.Lookup(arg)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", strings.ToUpper(arg))
		}
		units = append(units, aggregator.RegionUnit(r.Code))
	}
	return units, nil
}
