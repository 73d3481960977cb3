package cinrad

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownVCP reports a scan pattern with no standard-elevation table.
var ErrUnknownVCP = errors.New("unknown volume coverage pattern")

// vcpStandardElevations maps a volume coverage pattern to its nominal
// elevation angles in scan order. Constant reference data; never mutated.
var vcpStandardElevations = map[string][]float64{
	"VCP11":  {0.50, 1.45, 2.40, 3.35, 4.30, 5.25, 6.2, 7.5, 8.7, 10.00, 12.00, 14.00, 16.70, 19.50},
	"VCP11D": {0.48, 0.48, 1.49, 1.49, 2.42, 3.34, 4.31, 5.23, 6.20, 7.51, 8.70, 10.02, 12.00, 14.02, 16.70, 19.51},
	"VCP21":  {0.50, 1.45, 2.40, 3.35, 4.30, 6.00, 9.90, 14.6, 19.5},
	"VCP21D": {0.53, 0.53, 1.45, 1.45, 2.42, 3.43, 4.31, 6.02, 9.93, 14.59, 19.51},
	"VCP31":  {0.50, 1.5, 2.50, 3.5, 4.50},
	"VCP31D": {0.48, 0.48, 1.49, 1.49, 2.50, 2.50, 3.52, 4.48},
	"VCP32":  {0.50, 1.5, 2.50, 3.5, 4.50},
	"VCP32D": {0.48, 0.48, 1.49, 1.49, 2.50, 3.52, 4.48},
}

// StandardElevation normalizes a measured elevation to the nearest nominal
// angle of the pattern, returning the 1-based layer id and that angle. Ties
// go to the lowest layer. Patterns with repeated consecutive angles (batch
// cuts) collapse to the first occurrence, so the layer id is not a scan-order
// key for those patterns.
func StandardElevation(elevation float64, vcp string) (int, float64, error) {
	angles, ok := vcpStandardElevations[vcp]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownVCP, vcp)
	}
	best := 0
	for i, a := range angles {
		if math.Abs(a-elevation) < math.Abs(angles[best]-elevation) {
			best = i
		}
	}
	return best + 1, angles[best], nil
}

// StandardElevationByID returns the nominal elevation for a 1-based layer id.
func StandardElevationByID(layerID int, vcp string) (float64, error) {
	angles, ok := vcpStandardElevations[vcp]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVCP, vcp)
	}
	if layerID < 1 || layerID > len(angles) {
		return 0, fmt.Errorf("layer %d outside %s (%d layers)", layerID, vcp, len(angles))
	}
	return angles[layerID-1], nil
}
