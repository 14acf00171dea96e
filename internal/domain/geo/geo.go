// Package geo provides the coordinate type and the great-circle distance
// used by proximity filtering.
package geo

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned by Validate for coordinates outside the
// latitude [-90, 90] / longitude [-180, 180] range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a point on the Earth's surface in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Validate reports whether c lies within the valid degree ranges.
// DistanceKm does not validate its input; callers check coordinates at the
// boundary where they enter the system.
func (c Coordinate) Validate() error {
	if !s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid() {
		return errors.Wrapf(ErrInvalidCoordinate, "lat=%v lon=%v", c.Latitude, c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Latitude, c.Longitude)
}

// DistanceTo is shorthand for DistanceKm(c, other).
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return DistanceKm(c, other)
}

// DistanceKm returns the Haversine great-circle distance between a and b in
// kilometers. The result is symmetric and zero for identical points.
func DistanceKm(a, b Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*sinLon*sinLon

	// Rounding can push h a hair outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
