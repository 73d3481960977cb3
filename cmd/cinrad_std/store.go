package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"cinrad_std/internal/cinrad"
	"cinrad_std/internal/notify"
	"cinrad_std/internal/query"
	"cinrad_std/internal/storage"
)

func runStore(args []string) {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	file := fs.String("file", "", "STD basic-data file")
	indexPath := fs.String("index", "volumes.db", "SQLite volume index path")

	useCH := fs.Bool("clickhouse", false, "Archive radial bins to ClickHouse")
	chHost := fs.String("ch-host", envOrDefault("CLICKHOUSE_HOST", "localhost"), "ClickHouse host")
	chPort := fs.Int("ch-port", envOrDefaultInt("CLICKHOUSE_PORT", 9000), "ClickHouse port")
	chDB := fs.String("ch-database", envOrDefault("CLICKHOUSE_DATABASE", "radar"), "ClickHouse database")
	chUser := fs.String("ch-user", envOrDefault("CLICKHOUSE_USER", "default"), "ClickHouse user")
	chPassword := fs.String("ch-password", envOrDefault("CLICKHOUSE_PASSWORD", ""), "ClickHouse password")

	usePG := fs.Bool("postgres", false, "Register site and volume in PostgreSQL")
	pgHost := fs.String("pg-host", envOrDefault("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	pgPort := fs.Int("pg-port", envOrDefaultInt("POSTGRES_PORT", 5432), "PostgreSQL port")
	pgDB := fs.String("pg-database", envOrDefault("POSTGRES_DATABASE", "radar_catalog"), "PostgreSQL database")
	pgUser := fs.String("pg-user", envOrDefault("POSTGRES_USER", "radar"), "PostgreSQL user")
	pgPassword := fs.String("pg-password", envOrDefault("POSTGRES_PASSWORD", "radar"), "PostgreSQL password")

	natsURL := fs.String("nats", "", "NATS server URL for decode notifications (empty = off)")
	natsSubject := fs.String("nats-subject", notify.DefaultSubject, "NATS subject for notifications")
	_ = fs.Parse(args)

	vol := mustDecode(*file)
	ctx := context.Background()

	moments := make([]string, 0, len(vol.Radial))
	for _, m := range vol.Moments() {
		moments = append(moments, m.String())
	}

	// Local index first: it is the cheapest backend and the one later
	// subcommands rely on.
	db, err := storage.Open(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open volume index: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	volumeID, err := db.SaveVolume(storage.VolumeRecord{
		Path:      *file,
		SiteCode:  vol.Site.SiteCode,
		SiteName:  vol.Site.SiteName,
		TaskName:  vol.Task.TaskName,
		ScanStart: vol.ScanStart(),
		CutCount:  len(vol.Cuts),
		Moments:   moments,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to index volume: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed volume %d (%s %s, %d cuts, %d moments)\n",
		volumeID, vol.Site.SiteCode, vol.Task.TaskName, len(vol.Cuts), len(moments))

	if *useCH {
		ch, err := storage.OpenClickHouse(ctx, storage.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDB,
			User:     *chUser,
			Password: *chPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ClickHouse: %v\n", err)
			os.Exit(1)
		}
		defer ch.Close()

		if err := ch.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "ClickHouse schema: %v\n", err)
			os.Exit(1)
		}
		n, err := archiveRadials(ctx, ch, vol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ClickHouse archive: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Archived %d radial bins to ClickHouse\n", n)
	}

	if *usePG {
		pg, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
			Host:     *pgHost,
			Port:     *pgPort,
			Database: *pgDB,
			User:     *pgUser,
			Password: *pgPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "PostgreSQL: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()

		if err := pg.CreateSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "PostgreSQL schema: %v\n", err)
			os.Exit(1)
		}
		err = pg.UpsertSite(ctx, storage.Site{
			SiteCode:      vol.Site.SiteCode,
			SiteName:      vol.Site.SiteName,
			Latitude:      float64(vol.Site.Latitude),
			Longitude:     float64(vol.Site.Longitude),
			AntennaHeight: vol.Site.AntennaHeight,
			GroundHeight:  vol.Site.GroundHeight,
			Frequency:     vol.Site.Frequency,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "PostgreSQL site: %v\n", err)
			os.Exit(1)
		}
		err = pg.RegisterVolume(ctx, vol.Site.SiteCode, vol.Task.TaskName,
			vol.ScanStart(), len(vol.Cuts), moments)
		if err != nil {
			fmt.Fprintf(os.Stderr, "PostgreSQL volume: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered site %s in catalog\n", vol.Site.SiteCode)
	}

	if *natsURL != "" {
		pub, err := notify.Connect(*natsURL, *natsSubject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "NATS: %v\n", err)
			os.Exit(1)
		}
		defer pub.Close()

		err = pub.Publish(notify.VolumeSummary{
			SiteCode:  vol.Site.SiteCode,
			SiteName:  vol.Site.SiteName,
			TaskName:  vol.Task.TaskName,
			ScanStart: vol.ScanStart(),
			CutCount:  len(vol.Cuts),
			Moments:   moments,
			Path:      *file,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "NATS publish: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Published decode notification to %s\n", *natsSubject)
	}
}

// archiveRadials flattens every moment series into radial-bin rows and sends
// them batch by batch. Non-finite bins (range folding, no echo) are skipped;
// ClickHouse Float32 has no use for NaN here.
func archiveRadials(ctx context.Context, ch *storage.ClickHouseDB, vol *cinrad.Volume) (int, error) {
	const batchSize = 100000
	eng := query.New(vol)
	scanStart := vol.ScanStart()

	total := 0
	bins := make([]storage.RadialBin, 0, batchSize)
	flush := func() error {
		if len(bins) == 0 {
			return nil
		}
		if err := ch.InsertRadialBins(ctx, bins); err != nil {
			return err
		}
		total += len(bins)
		bins = bins[:0]
		return nil
	}

	for _, m := range vol.Moments() {
		series := vol.Radial[m]
		for i, row := range series.Rows {
			layerID := int(series.ElevationNumber[i])
			ku, err := eng.KuLength(layerID, m)
			if err != nil {
				return total, err
			}
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				bins = append(bins, storage.RadialBin{
					SiteCode:    vol.Site.SiteCode,
					TaskName:    vol.Task.TaskName,
					ScanStart:   scanStart,
					Moment:      m.String(),
					ElevationNo: uint8(layerID),
					RadialNo:    uint16(series.RadialNumber[i]),
					Azimuth:     float32(series.Azimuth[i]),
					Elevation:   float32(series.Elevation[i]),
					Bin:         uint16(j),
					RangeM:      uint32(int(ku) * (j + 1)),
					Value:       float32(v),
				})
				if len(bins) == batchSize {
					if err := flush(); err != nil {
						return total, err
					}
				}
			}
		}
	}
	return total, flush()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
