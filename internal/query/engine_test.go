package query

import (
	"errors"
	"math"
	"testing"

	"cinrad_std/internal/cinrad"
)

// testVolume builds a two-cut volume by hand: four dBZ radials of 100 bins
// in cut 1, two of 50 bins in cut 2, plus a short V series in cut 1 only.
// Bin values equal their bin index so lookups are self-describing.
func testVolume() *cinrad.Volume {
	row := func(n int) []float64 {
		r := make([]float64, n)
		for i := range r {
			r[i] = float64(i)
		}
		return r
	}

	dbz := &cinrad.MomentSeries{
		Rows:            [][]float64{row(100), row(100), row(100), row(100), row(50), row(50)},
		RowLengths:      []int{100, 100, 100, 100, 50, 50},
		RadialState:     []int32{0, 0, 0, 0, 0, 4},
		SpotBlank:       make([]int32, 6),
		SequenceNumber:  []int32{1, 2, 3, 4, 5, 6},
		RadialNumber:    []int32{1, 2, 3, 4, 1, 2},
		ElevationNumber: []int32{1, 1, 1, 1, 2, 2},
		Azimuth:         []float64{0, 90, 180, 270, 0, 180},
		Elevation:       []float64{0.48, 0.52, 0.50, 0.49, 1.44, 1.46},
		Seconds:         make([]int32, 6),
		Microseconds:    make([]int32, 6),
		HorizontalEstimatedNoise: make([]int16, 6),
		VerticalEstimatedNoise:   make([]int16, 6),
	}
	vel := &cinrad.MomentSeries{
		Rows:            [][]float64{row(25), row(25)},
		RowLengths:      []int{25, 25},
		RadialState:     []int32{0, 0},
		SpotBlank:       make([]int32, 2),
		SequenceNumber:  []int32{1, 2},
		RadialNumber:    []int32{1, 2},
		ElevationNumber: []int32{1, 1},
		Azimuth:         []float64{0, 180},
		Elevation:       []float64{0.48, 0.50},
		Seconds:         make([]int32, 2),
		Microseconds:    make([]int32, 2),
		HorizontalEstimatedNoise: make([]int16, 2),
		VerticalEstimatedNoise:   make([]int16, 2),
	}

	return &cinrad.Volume{
		Site: cinrad.SiteConfig{SiteCode: "Z9200", Latitude: 0, Longitude: 0},
		Task: cinrad.TaskConfig{TaskName: "VCP21", CutNumber: 2},
		Cuts: []cinrad.CutConfig{
			{Elevation: 0.5, LogResolution: 1000, DopplerResolution: 250},
			{Elevation: 1.45, LogResolution: 1000, DopplerResolution: 250},
		},
		Radial: map[cinrad.Moment]*cinrad.MomentSeries{
			cinrad.DBZ: dbz,
			cinrad.V:   vel,
		},
	}
}

func TestCutRange(t *testing.T) {
	e := New(testVolume())

	tests := []struct {
		layer      int
		moment     cinrad.Moment
		wantStart  int
		wantEnd    int
	}{
		{1, cinrad.DBZ, 0, 4},
		{2, cinrad.DBZ, 4, 6},
		{1, cinrad.V, 0, 2},
	}
	for _, tt := range tests {
		start, end, err := e.CutRange(tt.layer, tt.moment)
		if err != nil {
			t.Errorf("CutRange(%d, %s): %v", tt.layer, tt.moment, err)
			continue
		}
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("CutRange(%d, %s) = (%d, %d), want (%d, %d)",
				tt.layer, tt.moment, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestCutRangePartition(t *testing.T) {
	vol := testVolume()
	e := New(vol)

	// The per-layer ranges must partition the dBZ arrays exactly.
	s := vol.Radial[cinrad.DBZ]
	covered := 0
	for layer := 1; layer <= len(vol.Cuts); layer++ {
		start, end, err := e.CutRange(layer, cinrad.DBZ)
		if err != nil {
			t.Fatalf("CutRange(%d): %v", layer, err)
		}
		if start != covered {
			t.Errorf("layer %d starts at %d, want %d (contiguous partition)", layer, start, covered)
		}
		covered = end
	}
	if covered != s.Len() {
		t.Errorf("partition covers %d of %d radials", covered, s.Len())
	}
}

func TestCutRangeNotFound(t *testing.T) {
	e := New(testVolume())

	if _, _, err := e.CutRange(3, cinrad.DBZ); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("layer 3 err = %v, want ErrElementNotFound", err)
	}
	if _, _, err := e.CutRange(2, cinrad.V); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("V layer 2 err = %v, want ErrElementNotFound", err)
	}
	if _, _, err := e.CutRange(1, cinrad.W); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("absent moment err = %v, want ErrElementNotFound", err)
	}
}

func TestKuLength(t *testing.T) {
	e := New(testVolume())

	if ku, _ := e.KuLength(1, cinrad.DBZ); ku != 1000 {
		t.Errorf("dBZ ku length = %d, want 1000", ku)
	}
	if ku, _ := e.KuLength(1, cinrad.V); ku != 250 {
		t.Errorf("V ku length = %d, want 250", ku)
	}
	if ku, _ := e.KuLength(1, cinrad.W); ku != 250 {
		t.Errorf("W ku length = %d, want 250", ku)
	}
	if _, err := e.KuLength(5, cinrad.DBZ); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("layer 5 err = %v, want ErrElementNotFound", err)
	}
}

func TestValueAtPolar(t *testing.T) {
	e := New(testVolume())

	// 50 km at azimuth 92: nearest beam is the one at 90, and the slant
	// range lands in bin 50, whose value is its own index.
	height, value, err := e.ValueAtPolar(50000, 92, 1, cinrad.DBZ)
	if err != nil {
		t.Fatalf("ValueAtPolar: %v", err)
	}
	if value != 50 {
		t.Errorf("value = %v, want 50", value)
	}

	// Height carries the flat term plus a positive curvature correction.
	flat := math.Sin(0.5*math.Pi/180) * 50000
	if height <= flat || height > flat+200 {
		t.Errorf("height = %v, want within (%v, %v]", height, flat, flat+200)
	}
}

func TestValueAtPolarAzimuthTie(t *testing.T) {
	e := New(testVolume())

	// 45 is equidistant from beams at 0 and 90; the first wins, and bin 10
	// of row 0 is 10.
	_, value, err := e.ValueAtPolar(10000, 45, 1, cinrad.DBZ)
	if err != nil {
		t.Fatalf("ValueAtPolar: %v", err)
	}
	if value != 10 {
		t.Errorf("value = %v, want 10 (tie broken toward first beam)", value)
	}
}

func TestValueAtPolarOutOfRange(t *testing.T) {
	e := New(testVolume())

	// dBZ cut 1 reaches 100 bins x 1000 m.
	if _, _, err := e.ValueAtPolar(150000, 0, 1, cinrad.DBZ); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	// V reaches only 25 bins x 250 m.
	if _, _, err := e.ValueAtPolar(10000, 0, 1, cinrad.V); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("V err = %v, want ErrOutOfRange", err)
	}
}

func TestValueAtLatLon(t *testing.T) {
	e := New(testVolume())

	// 0.3 degrees due east of the site at the equator: about 33.36 km on a
	// bearing of 90, so bin 33 of the 90-degree beam.
	_, value, err := e.ValueAtLatLon(0, 0.3, 1, cinrad.DBZ)
	if err != nil {
		t.Fatalf("ValueAtLatLon: %v", err)
	}
	if value != 33 {
		t.Errorf("value = %v, want 33", value)
	}
}

func TestProfile(t *testing.T) {
	e := New(testVolume())

	heights, values, err := e.Profile(0, 0.3, cinrad.DBZ)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(heights) != 2 || len(values) != 2 {
		t.Fatalf("profile lengths = %d/%d, want 2/2", len(heights), len(values))
	}
	if heights[1] <= heights[0] {
		t.Errorf("higher layer not higher: %v then %v", heights[0], heights[1])
	}

	// V covers only 6.25 km; 33 km out every layer is out of range.
	if _, _, err := e.Profile(0, 0.3, cinrad.V); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("V profile err = %v, want ErrElementNotFound", err)
	}
}

func TestProfileUnknownVCP(t *testing.T) {
	vol := testVolume()
	vol.Task.TaskName = "LOCAL_SCAN"
	e := New(vol)

	if _, _, err := e.Profile(0, 0.3, cinrad.DBZ); !errors.Is(err, cinrad.ErrUnknownVCP) {
		t.Errorf("err = %v, want ErrUnknownVCP", err)
	}
}
