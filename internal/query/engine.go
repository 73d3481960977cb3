// Package query answers spatial queries against a decoded radar volume:
// value at a polar coordinate, value at a lat/lon, vertical profiles, and
// PPI display slabs. All operations are read-only; an Engine may be shared
// by any number of goroutines.
package query

import (
	"errors"
	"fmt"
	"math"

	"cinrad_std/internal/cinrad"
	"cinrad_std/internal/geodesy"
)

// Query errors. These are recoverable: they describe the request, not the
// volume, and never leave the volume in a bad state.
var (
	ErrElementNotFound = errors.New("moment not present in layer")
	ErrOutOfRange      = errors.New("beyond maximum unambiguous range")
	ErrInconsistent    = errors.New("radials of one sweep have differing bin counts")
)

// Earth radii for beam-height correction, meters. The effective (4/3-ish)
// radius models standard atmospheric refraction.
const (
	earthRadius          = 6371393.0
	effectiveEarthRadius = 8500000.0
)

// Engine wraps a decoded volume for spatial lookup.
type Engine struct {
	vol *cinrad.Volume
}

// New returns an Engine over vol. The volume must be fully decoded; the
// engine never mutates it.
func New(vol *cinrad.Volume) *Engine {
	return &Engine{vol: vol}
}

// Volume returns the underlying decoded volume.
func (e *Engine) Volume() *cinrad.Volume { return e.vol }

// CutRange locates the radials of one sweep layer within a moment's parallel
// arrays: the first maximal contiguous run of layerID in ElevationNumber,
// returned as a half-open [start, end) index range. Radials land in the
// arrays in file order, cut-major, so the run covers the whole sweep.
func (e *Engine) CutRange(layerID int, m cinrad.Moment) (int, int, error) {
	s, ok := e.vol.Radial[m]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrElementNotFound, m)
	}
	start := -1
	for i, n := range s.ElevationNumber {
		if start < 0 {
			if int(n) == layerID {
				start = i
			}
			continue
		}
		if int(n) != layerID {
			return start, i, nil
		}
	}
	if start < 0 {
		return 0, 0, fmt.Errorf("%w: %s layer %d", ErrElementNotFound, m, layerID)
	}
	return start, s.Len(), nil
}

// KuLength returns the range bin length in meters for one layer: the doppler
// resolution for velocity and spectrum-width moments, the log resolution for
// everything else.
func (e *Engine) KuLength(layerID int, m cinrad.Moment) (int32, error) {
	if layerID < 1 || layerID > len(e.vol.Cuts) {
		return 0, fmt.Errorf("%w: layer %d of %d", ErrElementNotFound, layerID, len(e.vol.Cuts))
	}
	cut := e.vol.Cuts[layerID-1]
	if m == cinrad.V || m == cinrad.W {
		return cut.DopplerResolution, nil
	}
	return cut.LogResolution, nil
}

// ValueAtPolar returns the beam height above ground and the measured value
// at a ground distance (meters) and azimuth (degrees) from the site, for one
// sweep layer. The layer's nominal elevation comes from the task's volume
// coverage pattern.
func (e *Engine) ValueAtPolar(distance, azimuth float64, layerID int, m cinrad.Moment) (float64, float64, error) {
	start, end, err := e.CutRange(layerID, m)
	if err != nil {
		return 0, 0, err
	}
	s := e.vol.Radial[m]
	rows := s.Rows[start:end]
	azimuths := s.Azimuth[start:end]

	elevation, err := cinrad.StandardElevationByID(layerID, e.vol.Task.TaskName)
	if err != nil {
		return 0, 0, err
	}
	radius := distance / math.Cos(radians(elevation))

	ku, err := e.KuLength(layerID, m)
	if err != nil {
		return 0, 0, err
	}
	maxRadius := float64(ku) * float64(len(rows[0]))
	if radius > maxRadius {
		return 0, 0, fmt.Errorf("%w: slant range %.0f m > %.0f m", ErrOutOfRange, radius, maxRadius)
	}

	// Nearest recorded beam by azimuth, first index on ties.
	best := 0
	for i, a := range azimuths {
		if math.Abs(a-azimuth) < math.Abs(azimuths[best]-azimuth) {
			best = i
		}
	}

	bin := int(radius / float64(ku))
	if bin >= len(rows[best]) {
		return 0, 0, fmt.Errorf("%w: bin %d of %d", ErrOutOfRange, bin, len(rows[best]))
	}

	return beamHeight(distance, elevation), rows[best][bin], nil
}

// beamHeight combines the flat-earth term with an effective-earth-radius
// correction: the chord subtended at the true radius, then the triangle law
// of cosines against the effective radius.
func beamHeight(distance, elevation float64) float64 {
	flat := math.Sin(radians(elevation)) * distance
	a := math.Sqrt(2*earthRadius*earthRadius - 2*earthRadius*earthRadius*math.Cos(distance/earthRadius))
	b := math.Sqrt(effectiveEarthRadius*effectiveEarthRadius + a*a -
		2*effectiveEarthRadius*a*math.Cos((math.Pi-distance/earthRadius)/2))
	return flat + (effectiveEarthRadius - b)
}

// ValueAtLatLon resolves a geographic point to ground distance and bearing
// from the radar site and answers through ValueAtPolar.
func (e *Engine) ValueAtLatLon(lat, lon float64, layerID int, m cinrad.Moment) (float64, float64, error) {
	siteLat := float64(e.vol.Site.Latitude)
	siteLon := float64(e.vol.Site.Longitude)
	distance := geodesy.Distance(lat, lon, siteLat, siteLon) * 1000
	azimuth := geodesy.Bearing(siteLat, siteLon, lat, lon)
	return e.ValueAtPolar(distance, azimuth, layerID, m)
}

// Profile returns the (height, value) pair for every sweep layer that
// recorded moment m at the given point. Layers without the moment, or where
// the point lies beyond the layer's range, are skipped.
func (e *Engine) Profile(lat, lon float64, m cinrad.Moment) ([]float64, []float64, error) {
	var heights, values []float64
	for layerID := 1; layerID <= len(e.vol.Cuts); layerID++ {
		if !e.vol.HasElement(layerID, m) {
			continue
		}
		h, v, err := e.ValueAtLatLon(lat, lon, layerID, m)
		if err != nil {
			if errors.Is(err, ErrOutOfRange) {
				continue
			}
			return nil, nil, err
		}
		heights = append(heights, h)
		values = append(values, v)
	}
	if len(heights) == 0 {
		return nil, nil, fmt.Errorf("%w: %s at %.4f,%.4f", ErrElementNotFound, m, lat, lon)
	}
	return heights, values, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
