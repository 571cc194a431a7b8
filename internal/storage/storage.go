// Package storage persists discovered venues and events in SQLite so
// that a one-time nationwide discovery run can serve later radius
// queries without touching any network source.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/daz2d/coptic-service-events/internal/church"
	"github.com/daz2d/coptic-service-events/internal/geo"
)

const schema = `
CREATE TABLE IF NOT EXISTS venues (
    identity        TEXT PRIMARY KEY,
    source_id       TEXT UNIQUE,
    name            TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    latitude        REAL,
    longitude       REAL,
    street          TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    region          TEXT NOT NULL DEFAULT '',
    country         TEXT NOT NULL DEFAULT '',
    website         TEXT NOT NULL DEFAULT '',
    phone           TEXT NOT NULL DEFAULT '',
    unverifiable    INTEGER NOT NULL DEFAULT 0,
    discovered_at   TEXT NOT NULL,
    last_updated    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    venue_identity  TEXT NOT NULL REFERENCES venues(identity),
    title           TEXT NOT NULL,
    normalized_title TEXT NOT NULL,
    date            TEXT NOT NULL,
    time            TEXT NOT NULL,
    event_type      TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    source_url      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL,
    UNIQUE(venue_identity, normalized_title, date, time)
);

CREATE INDEX IF NOT EXISTS idx_venues_region ON venues(region);
CREATE INDEX IF NOT EXISTS idx_venues_coords ON venues(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
`

// Store is the SQLite-backed venue and event database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path, running the schema. A ~/
// prefix expands to the user's home directory.
func Open(path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// UpsertVenue inserts a venue or refreshes an existing row. Contact
// fields already on file are kept; only empty ones are filled from the
// new record, so a rediscovery never overwrites the first-seen original.
func (s *Store) UpsertVenue(ctx context.Context, v *church.Venue) error {
	return upsertVenue(ctx, s.db, v)
}

func upsertVenue(ctx context.Context, db execer, v *church.Venue) error {
	var sourceID sql.NullString
	if v.SourceID != "" {
		sourceID = sql.NullString{String: v.SourceID, Valid: true}
	}

	var lat, lon sql.NullFloat64
	if v.Coords != nil {
		lat = sql.NullFloat64{Float64: v.Coords.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: v.Coords.Lon, Valid: true}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	discoveredAt := v.DiscoveredAt.UTC().Format(time.RFC3339)

	_, err := db.ExecContext(ctx, `
		INSERT INTO venues (
			identity, source_id, name, normalized_name, latitude, longitude,
			street, city, region, country, website, phone, unverifiable,
			discovered_at, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			website      = CASE WHEN venues.website = '' THEN excluded.website ELSE venues.website END,
			phone        = CASE WHEN venues.phone = '' THEN excluded.phone ELSE venues.phone END,
			last_updated = excluded.last_updated`,
		v.Identity(), sourceID, v.Name, v.NormalizedName, lat, lon,
		v.Street, v.City, v.Region, v.Country, v.Website, v.Phone, v.Unverifiable,
		discoveredAt, now,
	)
	if err != nil {
		return fmt.Errorf("upserting venue %s: %w", v.Identity(), err)
	}
	return nil
}

// SaveVenues upserts a batch of venues in one transaction.
func (s *Store) SaveVenues(ctx context.Context, venues []*church.Venue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range venues {
		if err := upsertVenue(ctx, tx, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddEvent records an event, returning false when an identical event is
// already on file. The venue row must exist first.
func (s *Store) AddEvent(ctx context.Context, e *church.Event) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (
			venue_identity, title, normalized_title, date, time,
			event_type, description, source_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue_identity, normalized_title, date, time) DO NOTHING`,
		e.Venue.Identity(), e.Title, e.NormalizedTitle(), e.Date, e.Time,
		string(e.Type), e.Description, e.SourceURL, now,
	)
	if err != nil {
		return false, fmt.Errorf("adding event %q: %w", e.Title, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const venueColumns = `identity, source_id, name, latitude, longitude,
	street, city, region, country, website, phone, unverifiable, discovered_at`

func scanVenue(row interface{ Scan(...interface{}) error }) (*church.Venue, error) {
	var (
		identity, name                string
		sourceID                      sql.NullString
		lat, lon                      sql.NullFloat64
		street, city, region, country string
		website, phone, discoveredAt  string
		unverifiable                  bool
	)
	err := row.Scan(&identity, &sourceID, &name, &lat, &lon,
		&street, &city, &region, &country, &website, &phone, &unverifiable, &discoveredAt)
	if err != nil {
		return nil, err
	}

	var coords *geo.Point
	if lat.Valid && lon.Valid {
		coords = &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
	}

	v := church.NewVenue(sourceID.String, name, coords, street, city, region, country)
	v.Website = website
	v.Phone = phone
	if ts, err := time.Parse(time.RFC3339, discoveredAt); err == nil {
		v.DiscoveredAt = ts
	}
	return v, nil
}

// Venues returns all stored venues, optionally restricted to one region
// code, ordered by region then name.
func (s *Store) Venues(ctx context.Context, region string) ([]*church.Venue, error) {
	query := fmt.Sprintf(`SELECT %s FROM venues`, venueColumns)
	args := []interface{}{}
	if region != "" {
		query += ` WHERE region = ?`
		args = append(args, strings.ToUpper(region))
	}
	query += ` ORDER BY region, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying venues: %w", err)
	}
	defer rows.Close()

	var venues []*church.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// VenuesWithinRadius returns stored venues within radiusMiles of center,
// nearest first. A coarse bounding box narrows the scan in SQL; the
// exact distance check happens in Go. Venues without coordinates never
// match.
func (s *Store) VenuesWithinRadius(ctx context.Context, center geo.Point, radiusMiles float64) ([]*church.Venue, error) {
	if radiusMiles <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusMiles)
	}

	// 1 degree latitude is about 69 miles; longitude about 54 at mid
	// latitudes. The box over-selects and the haversine pass trims it.
	latDelta := radiusMiles / 69.0
	lonDelta := radiusMiles / 54.0

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM venues
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`, venueColumns),
		center.Lat-latDelta, center.Lat+latDelta,
		center.Lon-lonDelta, center.Lon+lonDelta,
	)
	if err != nil {
		return nil, fmt.Errorf("querying venues in box: %w", err)
	}
	defer rows.Close()

	var venues []*church.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning venue: %w", err)
		}
		if v.Coords != nil && geo.Distance(center, *v.Coords) <= radiusMiles {
			venues = append(venues, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(venues, func(i, j int) bool {
		return geo.Distance(center, *venues[i].Coords) < geo.Distance(center, *venues[j].Coords)
	})
	return venues, nil
}

// UpcomingEvents returns stored events dated within the next days days,
// soonest first, with their venues attached.
func (s *Store) UpcomingEvents(ctx context.Context, days int) ([]*church.Event, error) {
	today := time.Now().UTC().Format("2006-01-02")
	until := time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT e.title, e.date, e.time, e.event_type, e.description, e.source_url,
		       %s
		FROM events e
		JOIN venues v ON v.identity = e.venue_identity
		WHERE e.date >= ? AND e.date <= ?
		ORDER BY e.date, e.time`, prefixed(venueColumns, "v")),
		today, until,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*church.Event
	for rows.Next() {
		var (
			title, date, eventTime, typ   string
			description, sourceURL        string
			identity, name                string
			sourceID                      sql.NullString
			lat, lon                      sql.NullFloat64
			street, city, region, country string
			website, phone, discoveredAt  string
			unverifiable                  bool
		)
		err := rows.Scan(&title, &date, &eventTime, &typ, &description, &sourceURL,
			&identity, &sourceID, &name, &lat, &lon,
			&street, &city, &region, &country, &website, &phone, &unverifiable, &discoveredAt)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		var coords *geo.Point
		if lat.Valid && lon.Valid {
			coords = &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
		}
		venue := church.NewVenue(sourceID.String, name, coords, street, city, region, country)
		venue.Website = website
		venue.Phone = phone

		events = append(events, church.NewEvent(venue, title, date, eventTime, church.EventType(typ), description, sourceURL))
	}
	return events, rows.Err()
}

func prefixed(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// CoverageStats summarizes how complete the stored directory is.
type CoverageStats struct {
	TotalVenues int     `json:"total_venues"`
	WithWebsite int     `json:"with_website"`
	WithPhone   int     `json:"with_phone"`
	WithCoords  int     `json:"with_coords"`
	TotalEvents int     `json:"total_events"`
	WebsitePct  float64 `json:"website_pct"`
	PhonePct    float64 `json:"phone_pct"`
}

// Coverage returns directory coverage statistics.
func (s *Store) Coverage(ctx context.Context) (CoverageStats, error) {
	var stats CoverageStats

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN website != '' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN phone != '' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN latitude IS NOT NULL THEN 1 ELSE 0 END)
		FROM venues`,
	).Scan(&stats.TotalVenues, &nullInt{&stats.WithWebsite}, &nullInt{&stats.WithPhone}, &nullInt{&stats.WithCoords})
	if err != nil {
		return stats, fmt.Errorf("querying venue coverage: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&stats.TotalEvents); err != nil {
		return stats, fmt.Errorf("querying event count: %w", err)
	}

	if stats.TotalVenues > 0 {
		stats.WebsitePct = float64(stats.WithWebsite) / float64(stats.TotalVenues) * 100
		stats.PhonePct = float64(stats.WithPhone) / float64(stats.TotalVenues) * 100
	}
	return stats, nil
}

// nullInt scans a SUM() result, which is NULL over an empty table.
type nullInt struct{ dst *int }

func (n *nullInt) Scan(src interface{}) error {
	var v sql.NullInt64
	if err := v.Scan(src); err != nil {
		return err
	}
	*n.dst = int(v.Int64)
	return nil
}
