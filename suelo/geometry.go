package suelo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Kilometers per degree of latitude, and per degree of longitude at the
// equator. Good to well under 1% over a national extent, which is all the
// planar approximation promises.
const (
	kmPerDegreeLat = 110.574
	kmPerDegreeLon = 111.320
)

// DistanceKm returns the great-circle distance between two geographic
// (lon, lat) points in kilometers.
func DistanceKm(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000.0
}

// Projection maps geographic coordinates onto a local planar frame measured
// in kilometers, anchored at the center of a bounding box. The mapping is
// affine (equirectangular with a fixed latitude scale), so containment and
// area ratios are preserved between the two frames.
type Projection struct {
	origin   orb.Point
	kmPerLon float64
	kmPerLat float64
}

// NewProjection builds the planar frame for a bounding box.
func NewProjection(b BoundingBox) Projection {
	midLat := (b.LatMin + b.LatMax) / 2
	return Projection{
		origin:   orb.Point{(b.LonMin + b.LonMax) / 2, midLat},
		kmPerLon: kmPerDegreeLon * math.Cos(midLat*math.Pi/180),
		kmPerLat: kmPerDegreeLat,
	}
}

// Project converts a geographic (lon, lat) point to planar km coordinates.
func (p Projection) Project(g orb.Point) orb.Point {
	return orb.Point{
		(g[0] - p.origin[0]) * p.kmPerLon,
		(g[1] - p.origin[1]) * p.kmPerLat,
	}
}

// Unproject converts a planar km point back to geographic (lon, lat).
func (p Projection) Unproject(q orb.Point) orb.Point {
	return orb.Point{
		q[0]/p.kmPerLon + p.origin[0],
		q[1]/p.kmPerLat + p.origin[1],
	}
}

// ProjectRing converts a whole ring to the planar frame.
func (p Projection) ProjectRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, pt := range r {
		out[i] = p.Project(pt)
	}
	return out
}

// UnprojectRing converts a planar ring back to geographic coordinates.
func (p Projection) UnprojectRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, pt := range r {
		out[i] = p.Unproject(pt)
	}
	return out
}

// RingArea returns the absolute planar area of a ring, regardless of its
// winding order.
func RingArea(r orb.Ring) float64 {
	return math.Abs(planar.Area(r))
}

// RingCentroid returns the area centroid of a ring.
func RingCentroid(r orb.Ring) orb.Point {
	c, _ := planar.CentroidArea(r)
	return c
}

// PointInRing reports whether a point lies inside a ring. Points exactly on
// the boundary count as inside; the whole engine relies on that convention
// so containing-cell lookups never drop a point that sits on a shared edge.
func PointInRing(r orb.Ring, p orb.Point) bool {
	if len(r) < 3 {
		return false
	}
	if planar.RingContains(r, p) {
		return true
	}
	return onRingBoundary(r, p, 1e-9)
}

// onRingBoundary reports whether p is within eps of any ring segment.
func onRingBoundary(r orb.Ring, p orb.Point, eps float64) bool {
	n := len(r)
	for i := 0; i < n; i++ {
		a := r[i]
		b := r[(i+1)%n]
		if pointSegmentDistance(p, a, b) <= eps {
			return true
		}
	}
	return false
}

// pointSegmentDistance returns the planar distance from p to segment ab.
func pointSegmentDistance(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p[0]-(a[0]+t*dx), p[1]-(a[1]+t*dy))
}

// ConvexHull computes the convex hull of a point set using Andrew's monotone
// chain, returning a closed ring in counter-clockwise order. Fewer than 3
// distinct points yield a nil ring.
func ConvexHull(points []orb.Point) orb.Ring {
	if len(points) < 3 {
		return nil
	}

	sorted := make([]orb.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	n := len(sorted)
	hull := make([]orb.Point, 0, 2*n)

	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Last point duplicates the first; drop it before closing explicitly.
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}

	ring := orb.Ring(hull)
	ring = append(ring, ring[0])
	return ring
}
