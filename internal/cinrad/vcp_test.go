package cinrad

import (
	"errors"
	"testing"
)

func TestStandardElevation(t *testing.T) {
	tests := []struct {
		elevation float64
		vcp       string
		wantLayer int
		wantElev  float64
	}{
		// |2.0-2.40| = 0.40 beats |2.0-1.45| = 0.55.
		{2.0, "VCP21", 3, 2.40},
		// Exact midpoint between 0.50 and 1.45 breaks low.
		{0.975, "VCP21", 1, 0.50},
		{0.6, "VCP21", 1, 0.50},
		{19.0, "VCP21", 9, 19.5},
		// Duplicated batch angles collapse to the first occurrence.
		{0.5, "VCP21D", 1, 0.53},
	}
	for _, tt := range tests {
		layer, elev, err := StandardElevation(tt.elevation, tt.vcp)
		if err != nil {
			t.Errorf("StandardElevation(%v, %s): %v", tt.elevation, tt.vcp, err)
			continue
		}
		if layer != tt.wantLayer || elev != tt.wantElev {
			t.Errorf("StandardElevation(%v, %s) = (%d, %v), want (%d, %v)",
				tt.elevation, tt.vcp, layer, elev, tt.wantLayer, tt.wantElev)
		}
	}
}

func TestStandardElevationUnknownVCP(t *testing.T) {
	if _, _, err := StandardElevation(1.0, "VCP99"); !errors.Is(err, ErrUnknownVCP) {
		t.Fatalf("err = %v, want ErrUnknownVCP", err)
	}
}

func TestStandardElevationByID(t *testing.T) {
	elev, err := StandardElevationByID(2, "VCP21")
	if err != nil {
		t.Fatalf("StandardElevationByID: %v", err)
	}
	if elev != 1.45 {
		t.Errorf("layer 2 of VCP21 = %v, want 1.45", elev)
	}

	if _, err := StandardElevationByID(10, "VCP21"); err == nil {
		t.Error("layer 10 of 9-layer VCP21 should fail")
	}
	if _, err := StandardElevationByID(1, "VCP99"); !errors.Is(err, ErrUnknownVCP) {
		t.Errorf("err = %v, want ErrUnknownVCP", err)
	}
}

func TestMomentTable(t *testing.T) {
	tests := []struct {
		code Moment
		name string
	}{
		{DBT, "dBT"},
		{DBZ, "dBZ"},
		{V, "V"},
		{W, "W"},
		{ZDR, "ZDR"},
		{SNRV, "SNRV"},
		{ZDRc, "ZDRc"},
	}
	for _, tt := range tests {
		if tt.code.String() != tt.name {
			t.Errorf("%d.String() = %q, want %q", tt.code, tt.code.String(), tt.name)
		}
		m, err := ParseMoment(tt.name)
		if err != nil || m != tt.code {
			t.Errorf("ParseMoment(%q) = (%v, %v), want %v", tt.name, m, err, tt.code)
		}
	}

	// 13 is a hole in the table.
	if Moment(13).Valid() {
		t.Error("code 13 should not be valid")
	}
	if _, err := ParseMoment("dbz"); err == nil {
		t.Error("moment names are case-sensitive")
	}
}
