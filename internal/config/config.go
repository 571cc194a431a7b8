// Package config loads the application's YAML configuration and resolves
// the search center from either explicit coordinates or a ZIP code.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daz2d/coptic-service-events/internal/geo"
)

const (
	configPathEnv = "CHURCH_EVENTS_CONFIG"
	apiKeyEnv     = "PLACES_API_KEY"
)

// Config holds the settings shared across the CLI commands.
type Config struct {
	Location  LocationConfig  `yaml:"location"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Cache     CacheConfig     `yaml:"cache"`
	Storage   StorageConfig   `yaml:"storage"`
	Places    PlacesConfig    `yaml:"places"`
}

// LocationConfig describes the search center. Either explicit
// coordinates or a ZIP code; coordinates win when both are set.
type LocationConfig struct {
	ZipCode     string  `yaml:"zipCode"`
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	RadiusMiles float64 `yaml:"radiusMiles"`
}

// DiscoveryConfig bounds the concurrent discovery run.
type DiscoveryConfig struct {
	Concurrency       int     `yaml:"concurrency"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
	MaxPerRegion      int     `yaml:"maxPerRegion"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// Timeout returns the per-unit timeout as a duration.
func (d DiscoveryConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// CacheConfig locates the TTL cache file.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// PlacesConfig wires the places API client.
type PlacesConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Location: LocationConfig{
			RadiusMiles: 15,
		},
		Discovery: DiscoveryConfig{
			Concurrency:       8,
			TimeoutSeconds:    60,
			MaxPerRegion:      100,
			RequestsPerSecond: 5,
		},
		Cache:   CacheConfig{Path: "~/.church-events/cache.json"},
		Storage: StorageConfig{Path: "~/.church-events/churches.db"},
	}
}

// Load reads the YAML file at path, falling back to the
// CHURCH_EVENTS_CONFIG environment variable and then to defaults when
// path is empty. File settings overlay the defaults; PLACES_API_KEY
// overrides the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if v := os.Getenv(apiKeyEnv); v != "" {
		cfg.Places.APIKey = v
	}

	return cfg, nil
}

// Center resolves the configured search center to coordinates and a
// display name. Explicit coordinates take precedence over the ZIP code.
func (l LocationConfig) Center() (geo.Point, string, error) {
	if l.Latitude != 0 || l.Longitude != 0 {
		return geo.Point{Lat: l.Latitude, Lon: l.Longitude}, fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude), nil
	}
	if l.ZipCode != "" {
		loc, ok := lookupZip(l.ZipCode)
		if !ok {
			return geo.Point{}, "", fmt.Errorf("unknown ZIP code %q", l.ZipCode)
		}
		return geo.Point{Lat: loc.Lat, Lon: loc.Lon}, loc.Name, nil
	}
	return geo.Point{}, "", fmt.Errorf("no location configured: set latitude/longitude or zipCode")
}
