package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daz2d/coptic-service-events/internal/cache"
	"github.com/daz2d/coptic-service-events/internal/config"
	"github.com/daz2d/coptic-service-events/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitPartial signals a run that finished with failures or was cut
	// short; collected results were still written.
	ExitPartial = 2
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command with its subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "church-events",
		Short: "Discover Coptic Orthodox churches and their service events",
		Long: `Discover Coptic Orthodox churches worldwide, keep them in a local
database, and find churches and service events near a location.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newNearbyCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}

// setup loads configuration and validates the shared flags.
func setup() (config.Config, OutputFormat, error) {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return config.Config{}, format, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, format, err
	}
	return cfg, format, nil
}

// expandPath resolves a leading ~/ against the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// openCache opens the TTL cache at the configured path, creating its
// directory on first use.
func openCache(path string) *cache.Cache {
	path = expandPath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Warn("creating cache directory failed", logger.Fields{"dir": dir, "error": err.Error()})
		}
	}
	return cache.New(path)
}
