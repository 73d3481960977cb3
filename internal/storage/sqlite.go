// Package storage persists decoded radar volumes: a local SQLite index of
// what has been decoded, a ClickHouse archive of radial bins for analytics,
// and a PostgreSQL site catalog.
package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// VolumeRecord is one decoded volume in the local index.
type VolumeRecord struct {
	ID        int64
	Path      string
	SiteCode  string
	SiteName  string
	TaskName  string
	ScanStart time.Time
	CutCount  int
	Moments   []string
	DecodedAt time.Time
}

// Sample is one recorded point query result.
type Sample struct {
	VolumeID  int64
	Moment    string
	LayerID   int
	Latitude  float64
	Longitude float64
	Height    float64
	Value     float64
}

// DB wraps a SQLite database holding the local volume index.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS volumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		site_code TEXT NOT NULL,
		site_name TEXT,
		task_name TEXT NOT NULL,
		scan_start TEXT NOT NULL,
		cut_count INTEGER NOT NULL,
		moments TEXT NOT NULL,
		decoded_at TEXT DEFAULT (datetime('now')),
		UNIQUE(site_code, task_name, scan_start)
	);

	CREATE INDEX IF NOT EXISTS idx_volumes_site ON volumes(site_code);
	CREATE INDEX IF NOT EXISTS idx_volumes_scan_start ON volumes(scan_start);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		volume_id INTEGER NOT NULL REFERENCES volumes(id),
		moment TEXT NOT NULL,
		layer_id INTEGER NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		height_m REAL NOT NULL,
		value REAL NOT NULL,
		queried_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_samples_volume ON samples(volume_id, moment);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveVolume records a decoded volume, replacing any earlier entry for the
// same site/task/scan time (re-decoding the same file is common).
func (d *DB) SaveVolume(v VolumeRecord) (int64, error) {
	scanStart := v.ScanStart.UTC().Format(time.RFC3339)
	_, err := d.db.Exec(`
		INSERT INTO volumes (path, site_code, site_name, task_name, scan_start, cut_count, moments)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_code, task_name, scan_start) DO UPDATE SET
			path = excluded.path,
			cut_count = excluded.cut_count,
			moments = excluded.moments,
			decoded_at = datetime('now')
	`, v.Path, v.SiteCode, v.SiteName, v.TaskName, scanStart, v.CutCount, strings.Join(v.Moments, ","))
	if err != nil {
		return 0, fmt.Errorf("save volume: %w", err)
	}

	// LastInsertId is meaningless on the update arm of the upsert; resolve
	// the surviving row id by key instead.
	var id int64
	row := d.db.QueryRow(`SELECT id FROM volumes WHERE site_code=? AND task_name=? AND scan_start=?`,
		v.SiteCode, v.TaskName, scanStart)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve volume id: %w", err)
	}
	return id, nil
}

// ListVolumes returns indexed volumes, newest scan first.
func (d *DB) ListVolumes(siteCode string, limit int) ([]VolumeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, path, site_code, site_name, task_name, scan_start, cut_count, moments, decoded_at
		FROM volumes`
	args := []any{}
	if siteCode != "" {
		query += ` WHERE site_code = ?`
		args = append(args, siteCode)
	}
	query += ` ORDER BY scan_start DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	defer rows.Close()

	var out []VolumeRecord
	for rows.Next() {
		var v VolumeRecord
		var scanStart, decodedAt, moments string
		if err := rows.Scan(&v.ID, &v.Path, &v.SiteCode, &v.SiteName, &v.TaskName,
			&scanStart, &v.CutCount, &moments, &decodedAt); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		v.ScanStart, _ = time.Parse(time.RFC3339, scanStart)
		if t, err := time.Parse("2006-01-02 15:04:05", decodedAt); err == nil {
			v.DecodedAt = t
		}
		if moments != "" {
			v.Moments = strings.Split(moments, ",")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// InsertSample records one point query result against a stored volume.
func (d *DB) InsertSample(s Sample) error {
	_, err := d.db.Exec(`
		INSERT INTO samples (volume_id, moment, layer_id, latitude, longitude, height_m, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.VolumeID, s.Moment, s.LayerID, s.Latitude, s.Longitude, s.Height, s.Value)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}
