package model

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// InvalidPolygonError is returned when a ring cannot be closed into a polygon
type InvalidPolygonError struct {
	Points int
	First  GeographicPoint
	Last   GeographicPoint
}

func (e *InvalidPolygonError) Error() string {
	if e.Points == 0 {
		return "invalid polygon: no points"
	}
	return fmt.Sprintf("invalid polygon: first point %s and last point %s do not match", e.First, e.Last)
}

// Polygon is a closed ring of points in longitude-then-latitude order
type Polygon struct {
	ring  orb.Ring
	bound orb.Bound
}

// BuildPolygon validates that the ring is closed and pre-computes its bounds
func BuildPolygon(points []GeographicPoint) (Polygon, error) {
	if len(points) == 0 {
		return Polygon{}, &InvalidPolygonError{}
	}

	first, last := points[0], points[len(points)-1]
	if !first.Equal(last) {
		return Polygon{}, &InvalidPolygonError{Points: len(points), First: first, Last: last}
	}

	ring := make(orb.Ring, len(points))
	for i, p := range points {
		ring[i] = p.Orb()
	}

	return Polygon{ring: ring, bound: ring.Bound()}, nil
}

// Ring returns the underlying orb ring
func (p Polygon) Ring() orb.Ring {
	return p.ring
}

// Bound returns the bounding box of the ring
func (p Polygon) Bound() orb.Bound {
	return p.bound
}

// Points returns a copy of the ring as geographic points
func (p Polygon) Points() []GeographicPoint {
	points := make([]GeographicPoint, len(p.ring))
	for i, pt := range p.ring {
		points[i] = MakePoint(pt[0], pt[1])
	}
	return points
}

// Contains reports whether the point lies inside the ring or on its boundary
func (p Polygon) Contains(point GeographicPoint) bool {
	pt := point.Orb()
	if !p.bound.Contains(pt) {
		return false
	}
	return planar.RingContains(p.ring, pt)
}

// PointInPolygon is the planar containment test used by the boundary index.
// Points exactly on the boundary count as contained.
func PointInPolygon(point GeographicPoint, polygon Polygon) bool {
	return polygon.Contains(point)
}
