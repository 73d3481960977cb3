package query

import (
	"errors"
	"math"
	"testing"

	"cinrad_std/internal/cinrad"
)

func TestPPISlab(t *testing.T) {
	e := New(testVolume())

	slab, err := e.PPISlab(1, 50000, cinrad.DBZ)
	if err != nil {
		t.Fatalf("PPISlab: %v", err)
	}

	if len(slab.Grid) != 4 {
		t.Fatalf("grid rows = %d, want 4", len(slab.Grid))
	}
	// 50 km at 1000 m bins.
	if len(slab.Radius) != 50 || len(slab.Grid[0]) != 50 {
		t.Fatalf("bins = %d/%d, want 50", len(slab.Radius), len(slab.Grid[0]))
	}
	if slab.Radius[0] != 1000 || slab.Radius[49] != 50000 {
		t.Errorf("radius axis = [%d .. %d], want [1000 .. 50000]", slab.Radius[0], slab.Radius[49])
	}
	if len(slab.Azimuth) != 4 || slab.Azimuth[1] != 90 {
		t.Errorf("azimuth axis = %v", slab.Azimuth)
	}
	if slab.Grid[2][10] != 10 {
		t.Errorf("Grid[2][10] = %v, want 10", slab.Grid[2][10])
	}
	for i := range slab.Invalid {
		for j, bad := range slab.Invalid[i] {
			if bad {
				t.Errorf("Invalid[%d][%d] set for a finite value", i, j)
			}
		}
	}
}

func TestPPISlabClampsRange(t *testing.T) {
	e := New(testVolume())

	// Far beyond the 100 km the cut covers: clamp, don't fail.
	slab, err := e.PPISlab(1, 5e8, cinrad.DBZ)
	if err != nil {
		t.Fatalf("PPISlab: %v", err)
	}
	if len(slab.Grid[0]) != 100 {
		t.Errorf("bins = %d, want all 100", len(slab.Grid[0]))
	}
}

func TestPPISlabInconsistent(t *testing.T) {
	vol := testVolume()
	s := vol.Radial[cinrad.DBZ]
	s.Rows[1] = s.Rows[1][:80]
	s.RowLengths[1] = 80

	e := New(vol)
	if _, err := e.PPISlab(1, 50000, cinrad.DBZ); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("err = %v, want ErrInconsistent", err)
	}
}

func TestPPISlabMarksInvalid(t *testing.T) {
	vol := testVolume()
	vol.Radial[cinrad.DBZ].Rows[0][3] = math.NaN()

	e := New(vol)
	slab, err := e.PPISlab(1, 50000, cinrad.DBZ)
	if err != nil {
		t.Fatalf("PPISlab: %v", err)
	}
	if !slab.Invalid[0][3] {
		t.Error("NaN bin not marked invalid")
	}
	if slab.Invalid[0][4] {
		t.Error("finite bin marked invalid")
	}
}

func TestPPISlabNotFound(t *testing.T) {
	e := New(testVolume())
	if _, err := e.PPISlab(3, 50000, cinrad.DBZ); !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
}
