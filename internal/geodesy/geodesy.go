// Package geodesy provides great-circle helpers on a spherical earth.
package geodesy

import "math"

// Mean earth radius in kilometers.
const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// points given in decimal degrees, via the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Bearing returns the initial bearing in degrees [0, 360) from point 1
// toward point 2.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlon := radians(lon2 - lon1)

	b := degrees(math.Atan2(math.Sin(dlon),
		math.Cos(rlat1)*math.Tan(rlat2)-math.Sin(rlat1)*math.Cos(dlon)))
	return math.Mod(b+360, 360)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
