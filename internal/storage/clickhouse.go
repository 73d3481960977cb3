package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for the radial-bin archive.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS radial_bins (
		site_code       LowCardinality(String),
		task_name       LowCardinality(String),
		scan_start      DateTime,
		moment          LowCardinality(String),
		elevation_no    UInt8,
		radial_no       UInt16,
		azimuth         Float32,
		elevation       Float32,
		bin             UInt16,
		range_m         UInt32,
		value           Float32,
		stored_at       DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(scan_start)
	ORDER BY (site_code, scan_start, moment, elevation_no, radial_no, bin)
	SETTINGS index_granularity = 8192`

	if err := d.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RadialBin is one decoded range bin headed for the archive.
type RadialBin struct {
	SiteCode    string
	TaskName    string
	ScanStart   time.Time
	Moment      string
	ElevationNo uint8
	RadialNo    uint16
	Azimuth     float32
	Elevation   float32
	Bin         uint16
	RangeM      uint32
	Value       float32
}

// InsertRadialBins archives decoded bins in one batch. A single sweep can be
// hundreds of radials times thousands of bins.
func (d *ClickHouseDB) InsertRadialBins(ctx context.Context, bins []RadialBin) error {
	if len(bins) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO radial_bins (site_code, task_name, scan_start, moment, elevation_no, radial_no, azimuth, elevation, bin, range_m, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bins {
		err := batch.Append(b.SiteCode, b.TaskName, b.ScanStart, b.Moment,
			b.ElevationNo, b.RadialNo, b.Azimuth, b.Elevation, b.Bin, b.RangeM, b.Value)
		if err != nil {
			return fmt.Errorf("append bin: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
