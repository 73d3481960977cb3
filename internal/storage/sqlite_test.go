package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "volumes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveAndListVolumes(t *testing.T) {
	db := testDB(t)

	scan := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := db.SaveVolume(VolumeRecord{
		Path:      "/data/Z9200_20240601.bin.bz2",
		SiteCode:  "Z9200",
		SiteName:  "Guangzhou",
		TaskName:  "VCP21",
		ScanStart: scan,
		CutCount:  9,
		Moments:   []string{"dBZ", "V", "W"},
	})
	if err != nil {
		t.Fatalf("SaveVolume: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveVolume returned id 0")
	}

	// Re-decoding the same scan must update, not duplicate.
	id2, err := db.SaveVolume(VolumeRecord{
		Path:      "/data/copy.bin",
		SiteCode:  "Z9200",
		SiteName:  "Guangzhou",
		TaskName:  "VCP21",
		ScanStart: scan,
		CutCount:  9,
		Moments:   []string{"dBZ", "V", "W", "ZDR"},
	})
	if err != nil {
		t.Fatalf("SaveVolume (upsert): %v", err)
	}
	if id2 != id {
		t.Errorf("upsert id = %d, want %d", id2, id)
	}

	vols, err := db.ListVolumes("Z9200", 10)
	if err != nil {
		t.Fatalf("ListVolumes: %v", err)
	}
	if len(vols) != 1 {
		t.Fatalf("len(vols) = %d, want 1", len(vols))
	}
	v := vols[0]
	if v.Path != "/data/copy.bin" {
		t.Errorf("Path = %q, want updated path", v.Path)
	}
	if !v.ScanStart.Equal(scan) {
		t.Errorf("ScanStart = %v, want %v", v.ScanStart, scan)
	}
	if len(v.Moments) != 4 || v.Moments[3] != "ZDR" {
		t.Errorf("Moments = %v, want updated list", v.Moments)
	}

	// Filtering by another site yields nothing.
	vols, err = db.ListVolumes("Z9999", 10)
	if err != nil {
		t.Fatalf("ListVolumes: %v", err)
	}
	if len(vols) != 0 {
		t.Errorf("len(vols) = %d, want 0", len(vols))
	}
}

func TestInsertSample(t *testing.T) {
	db := testDB(t)

	id, err := db.SaveVolume(VolumeRecord{
		Path:      "/data/v.bin",
		SiteCode:  "Z9200",
		TaskName:  "VCP21",
		ScanStart: time.Now().UTC(),
		CutCount:  9,
		Moments:   []string{"dBZ"},
	})
	if err != nil {
		t.Fatalf("SaveVolume: %v", err)
	}

	err = db.InsertSample(Sample{
		VolumeID:  id,
		Moment:    "dBZ",
		LayerID:   1,
		Latitude:  23.5,
		Longitude: 113.9,
		Height:    612.0,
		Value:     34.5,
	})
	if err != nil {
		t.Fatalf("InsertSample: %v", err)
	}
}
