package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/daz2d/coptic-service-events/internal/aggregator"
	"github.com/daz2d/coptic-service-events/internal/dedupe"
	"github.com/daz2d/coptic-service-events/internal/filter"
	"github.com/daz2d/coptic-service-events/internal/logger"
	"github.com/daz2d/coptic-service-events/internal/scraper"
	"github.com/daz2d/coptic-service-events/internal/storage"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Find service events at churches near a location",
		Long: `Scrape the websites of stored churches within a radius of the
configured location and report upcoming service events. Scrape results
are cached per church, so repeated runs only revisit churches whose
cache window has lapsed.`,
		RunE: runEvents,
	}

	addLocationFlags(cmd)
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Worker pool size (default from config)")
	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, format, err := setup()
	if err != nil {
		return err
	}
	if flagConcurrency > 0 {
		cfg.Discovery.Concurrency = flagConcurrency
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
	if len(venues) == 0 {
		return fmt.Errorf("no churches stored within %.0f miles of %s; run discover first", radius, name)
	}

	units := make([]aggregator.WorkUnit, 0, len(venues))
	for _, v := range venues {
		units = append(units, aggregator.VenueUnit(v))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := dedupe.New()
	result, err := aggregator.Run(ctx, units, scraper.New(), engine, aggregator.Options{
		MaxConcurrency: cfg.Discovery.Concurrency,
		TaskTimeout:    cfg.Discovery.Timeout(),
		Cache:          openCache(cfg.Cache.Path),
		Metrics:        logger.NewMetrics(),
	})
	if err != nil {
		return err
	}

	for _, evt := range result.Events {
		if _, err := store.AddEvent(ctx, evt); err != nil {
			logger.Warn("storing event failed", logger.Fields{
				"event": evt.Title,
				"error": err.Error(),
			})
		}
	}

	nearby, err := filter.NearbyEvents(result.Events, center, radius)
	if err != nil {
		return err
	}

	out := &EventsResult{
		Location:    name,
		RadiusMiles: radius,
		Churches:    len(venues),
		Count:       len(nearby),
		Events:      nearby,
		Failures:    result.Failures,
		Incomplete:  result.Incomplete,
	}
	if err := WriteEvents(os.Stdout, out, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if result.Incomplete || len(result.Failures) > 0 {
		os.Exit(ExitPartial)
	}
	return nil
}
