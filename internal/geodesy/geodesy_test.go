package geodesy

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	// One degree of longitude at the equator.
	got := Distance(0, 0, 0, 1)
	want := 111.19
	if math.Abs(got-want) > 0.01 {
		t.Errorf("Distance(0,0,0,1) = %v, want %v ± 0.01", got, want)
	}

	if d := Distance(23.0, 113.3, 23.0, 113.3); d != 0 {
		t.Errorf("zero-length distance = %v", d)
	}

	// Symmetric.
	a := Distance(23.0, 113.3, 24.5, 114.1)
	b := Distance(24.5, 114.1, 23.0, 113.3)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{0, 0, 0, 1, 90},   // due east
		{0, 0, 1, 0, 0},    // due north
		{0, 0, 0, -1, 270}, // due west
		{1, 0, 0, 0, 180},  // due south
	}
	for _, tt := range tests {
		got := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Bearing(%v,%v -> %v,%v) = %v, want %v",
				tt.lat1, tt.lon1, tt.lat2, tt.lon2, got, tt.want)
		}
	}
}

func TestBearingRange(t *testing.T) {
	for az := 0.0; az < 360; az += 15 {
		lat := math.Cos(az * math.Pi / 180)
		lon := math.Sin(az * math.Pi / 180)
		b := Bearing(0, 0, lat, lon)
		if b < 0 || b >= 360 {
			t.Errorf("bearing %v outside [0, 360)", b)
		}
	}
}
