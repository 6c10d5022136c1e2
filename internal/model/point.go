package model

import (
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
)

// Tolerance is the default absolute difference, in degrees, under which two
// coordinates are considered the same point.
const Tolerance = 0.0001

// GeographicPoint is a WGS84 coordinate kept in longitude-then-latitude order
type GeographicPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// MakePoint builds a point without validating the ranges
func MakePoint(lon, lat float64) GeographicPoint {
	return GeographicPoint{Longitude: lon, Latitude: lat}
}

// PointsEqual reports whether both coordinate deltas are strictly below tolerance.
// The relation is symmetric but not transitive: a~b and b~c does not imply a~c.
func PointsEqual(a, b GeographicPoint, tolerance float64) bool {
	latDelta := math.Abs(a.Latitude - b.Latitude)
	lonDelta := math.Abs(a.Longitude - b.Longitude)
	return latDelta < tolerance && lonDelta < tolerance
}

// Equal compares with the default Tolerance
func (p GeographicPoint) Equal(other GeographicPoint) bool {
	return PointsEqual(p, other, Tolerance)
}

// Orb returns the point as [lon, lat]
func (p GeographicPoint) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// CacheKey renders the exact coordinates. Two points share a key only when
// both coordinates are bit-for-bit identical.
func (p GeographicPoint) CacheKey() string {
	return strconv.FormatFloat(p.Longitude, 'g', -1, 64) + ":" + strconv.FormatFloat(p.Latitude, 'g', -1, 64)
}

// String returns the point in WKT notation
func (p GeographicPoint) String() string {
	return fmt.Sprintf("POINT(%v %v)", p.Longitude, p.Latitude)
}
