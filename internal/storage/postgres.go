package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool for the site catalog.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- Reference data: radar sites, keyed by station code.
	CREATE TABLE IF NOT EXISTS radar_sites (
		site_code       TEXT PRIMARY KEY,
		site_name       TEXT NOT NULL,
		latitude        DOUBLE PRECISION NOT NULL,
		longitude       DOUBLE PRECISION NOT NULL,
		antenna_height  INTEGER NOT NULL,
		ground_height   INTEGER NOT NULL,
		frequency       REAL,
		first_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		volume_count    INTEGER NOT NULL DEFAULT 1
	);

	-- One row per registered volume scan.
	CREATE TABLE IF NOT EXISTS radar_volumes (
		id              SERIAL PRIMARY KEY,
		site_code       TEXT NOT NULL REFERENCES radar_sites(site_code),
		task_name       TEXT NOT NULL,
		scan_start      TIMESTAMPTZ NOT NULL,
		cut_number      INTEGER NOT NULL,
		moments         TEXT[] NOT NULL,
		stored_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(site_code, task_name, scan_start)
	);

	CREATE INDEX IF NOT EXISTS idx_radar_volumes_site ON radar_volumes(site_code, scan_start);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Site is one radar station in the catalog.
type Site struct {
	SiteCode      string
	SiteName      string
	Latitude      float64
	Longitude     float64
	AntennaHeight int32
	GroundHeight  int32
	Frequency     float32
	FirstSeen     time.Time
	LastSeen      time.Time
	VolumeCount   int
}

// UpsertSite inserts or refreshes a radar site, bumping its volume count.
func (d *PostgresDB) UpsertSite(ctx context.Context, s Site) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO radar_sites (site_code, site_name, latitude, longitude, antenna_height, ground_height, frequency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (site_code) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			antenna_height = EXCLUDED.antenna_height,
			ground_height = EXCLUDED.ground_height,
			frequency = EXCLUDED.frequency,
			last_seen = NOW(),
			volume_count = radar_sites.volume_count + 1
	`, s.SiteCode, s.SiteName, s.Latitude, s.Longitude, s.AntennaHeight, s.GroundHeight, s.Frequency)
	if err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	return nil
}

// RegisterVolume records one volume scan against its site. Registering the
// same scan twice is a no-op.
func (d *PostgresDB) RegisterVolume(ctx context.Context, siteCode, taskName string, scanStart time.Time, cutNumber int, moments []string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO radar_volumes (site_code, task_name, scan_start, cut_number, moments)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (site_code, task_name, scan_start) DO NOTHING
	`, siteCode, taskName, scanStart, cutNumber, moments)
	if err != nil {
		return fmt.Errorf("register volume: %w", err)
	}
	return nil
}

// GetSite fetches one site from the catalog; ok is false when absent.
func (d *PostgresDB) GetSite(ctx context.Context, siteCode string) (Site, bool, error) {
	var s Site
	err := d.pool.QueryRow(ctx, `
		SELECT site_code, site_name, latitude, longitude, antenna_height, ground_height, frequency, first_seen, last_seen, volume_count
		FROM radar_sites WHERE site_code = $1
	`, siteCode).Scan(&s.SiteCode, &s.SiteName, &s.Latitude, &s.Longitude,
		&s.AntennaHeight, &s.GroundHeight, &s.Frequency, &s.FirstSeen, &s.LastSeen, &s.VolumeCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Site{}, false, nil
	}
	if err != nil {
		return Site{}, false, fmt.Errorf("get site: %w", err)
	}
	return s, true, nil
}

// ListSites returns all catalogued sites ordered by station code.
func (d *PostgresDB) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT site_code, site_name, latitude, longitude, antenna_height, ground_height, frequency, first_seen, last_seen, volume_count
		FROM radar_sites ORDER BY site_code
	`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.SiteCode, &s.SiteName, &s.Latitude, &s.Longitude,
			&s.AntennaHeight, &s.GroundHeight, &s.Frequency, &s.FirstSeen, &s.LastSeen, &s.VolumeCount); err != nil {
			return nil, fmt.Errorf("scan site row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
