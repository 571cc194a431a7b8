package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the discovery cache",
	}
	cmd.AddCommand(newCacheStatsCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and expiry state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, format, err := setup()
			if err != nil {
				return err
			}

			stats := openCache(cfg.Cache.Path).Stats()
			if err := WriteCacheStats(os.Stdout, stats, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}
}
