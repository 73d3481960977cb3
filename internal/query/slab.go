package query

import (
	"fmt"
	"math"

	"cinrad_std/internal/cinrad"
)

// Slab is one sweep layer prepared for PPI display: a uniform grid of values
// with its polar axes. Grid[i][j] is radial i, range bin j; Invalid marks
// bins whose decoded value is not finite. Radius[j] is the ground range of
// bin j in meters.
type Slab struct {
	Radius    []int     `json:"radius"`
	Azimuth   []float64 `json:"azimuth"`
	Elevation []float64 `json:"elevation"`
	Grid      [][]float64 `json:"grid"`
	Invalid   [][]bool    `json:"invalid"`
}

// PPISlab extracts layer layerID of moment m, truncated to showRange meters
// (clamped to the layer's maximum range). Every radial of the sweep must
// carry the same bin count; a mixed sweep cannot be displayed as one grid
// and yields ErrInconsistent.
func (e *Engine) PPISlab(layerID int, showRange float64, m cinrad.Moment) (*Slab, error) {
	start, end, err := e.CutRange(layerID, m)
	if err != nil {
		return nil, err
	}
	s := e.vol.Radial[m]
	rows := s.Rows[start:end]

	binCount := s.RowLengths[start]
	for _, n := range s.RowLengths[start:end] {
		if n != binCount {
			return nil, fmt.Errorf("%w: layer %d moment %s", ErrInconsistent, layerID, m)
		}
	}

	ku, err := e.KuLength(layerID, m)
	if err != nil {
		return nil, err
	}
	maxRange := float64(ku) * float64(binCount)
	if showRange > maxRange {
		showRange = maxRange
	}
	bins := int(showRange / float64(ku))

	slab := &Slab{
		Radius:    make([]int, bins),
		Azimuth:   append([]float64(nil), s.Azimuth[start:end]...),
		Elevation: append([]float64(nil), s.Elevation[start:end]...),
		Grid:      make([][]float64, len(rows)),
		Invalid:   make([][]bool, len(rows)),
	}
	for j := 0; j < bins; j++ {
		slab.Radius[j] = int(ku) * (j + 1)
	}
	for i, row := range rows {
		grid := make([]float64, bins)
		invalid := make([]bool, bins)
		copy(grid, row[:bins])
		for j, v := range grid {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				invalid[j] = true
			}
		}
		slab.Grid[i] = grid
		slab.Invalid[i] = invalid
	}
	return slab, nil
}
