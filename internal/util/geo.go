package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// boundaryAngle is how close, in radians, a point must be to an edge to be
// treated as lying on it (about 6mm on the Earth's surface)
const boundaryAngle = s1.Angle(1e-9)

// LoopFromRing converts a closed [lon, lat] ring into an S2 loop whose
// edges are great-circle arcs. The closing vertex and consecutive duplicates
// are dropped, and the loop is normalized so it encloses the smaller area
// regardless of the ring's winding order.
func LoopFromRing(ring orb.Ring) *s2.Loop {
	points := make([]s2.Point, 0, len(ring))
	for i, p := range ring {
		if i == len(ring)-1 && len(points) > 0 && p == ring[0] {
			break
		}
		point := s2.PointFromLatLng(s2.LatLngFromDegrees(p[1], p[0]))
		if len(points) > 0 && points[len(points)-1] == point {
			continue
		}
		points = append(points, point)
	}

	loop := s2.LoopFromPoints(points)
	loop.Normalize()

	// Build the shape index now so concurrent readers never trigger it
	loop.ContainsPoint(loop.Vertex(0))
	return loop
}

// LoopContains reports whether the point is inside the loop or on one of its edges
func LoopContains(loop *s2.Loop, lat, lng float64) bool {
	point := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	if loop.ContainsPoint(point) {
		return true
	}

	vertices := loop.Vertices()
	for i := range vertices {
		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]
		if s2.DistanceFromSegment(point, a, b) <= boundaryAngle {
			return true
		}
	}
	return false
}

// LoopBound returns the [lon, lat] bounding box of the loop, including the
// parts of its great-circle edges that bulge past their endpoints
func LoopBound(loop *s2.Loop) orb.Bound {
	rect := loop.RectBound()
	lo, hi := rect.Lo(), rect.Hi()
	return orb.Bound{
		Min: orb.Point{lo.Lng.Degrees(), lo.Lat.Degrees()},
		Max: orb.Point{hi.Lng.Degrees(), hi.Lat.Degrees()},
	}
}
