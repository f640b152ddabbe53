package suelo

import "github.com/paulmach/orb"

// Cells below this projected area (km²) are treated as construction noise
// and dropped rather than propagated.
const minCellAreaKm2 = 1e-9

// BuildDiagram partitions the bounding box into one Voronoi cell per sample:
// each cell is the set of locations closer to its owner than to any other
// sample, in the projected planar frame. The cells tile the box with no gaps
// or overlaps. Zero samples yield an empty slice; samples whose cell
// degenerates to nothing are skipped, which callers must tolerate.
func BuildDiagram(samples []SamplePoint, bounds BoundingBox) []VoronoiCell {
	if len(samples) == 0 {
		return nil
	}

	proj := NewProjection(bounds)
	sites := make([]orb.Point, len(samples))
	for i, s := range samples {
		sites[i] = proj.Project(s.Point())
	}

	rings := cellRings(sites, boxRing(bounds, proj))

	cells := make([]VoronoiCell, 0, len(samples))
	for i, ring := range rings {
		if ring == nil {
			continue
		}
		area := RingArea(ring)
		if area < minCellAreaKm2 {
			continue
		}
		cells = append(cells, VoronoiCell{
			OwnerID:   samples[i].ID,
			OwnerName: samples[i].Name,
			Ring:      closeRing(proj.UnprojectRing(ring)),
			AreaKm2:   area,
			Centroid:  proj.Unproject(RingCentroid(ring)),
		})
	}
	return cells
}

// boxRing returns the bounding box as an open CCW ring in the planar frame.
func boxRing(b BoundingBox, proj Projection) orb.Ring {
	return orb.Ring{
		proj.Project(orb.Point{b.LonMin, b.LatMin}),
		proj.Project(orb.Point{b.LonMax, b.LatMin}),
		proj.Project(orb.Point{b.LonMax, b.LatMax}),
		proj.Project(orb.Point{b.LonMin, b.LatMax}),
	}
}

// cellRings computes the clipped cell ring for every site by successively
// cutting the box with the perpendicular bisector of the site and each other
// site. Rings are open (not explicitly closed) and in the planar frame; a
// nil entry marks a site whose cell degenerated away. O(n²) in the number of
// sites, which is fine for the tens-to-hundreds of samples this serves.
func cellRings(sites []orb.Point, box orb.Ring) []orb.Ring {
	rings := make([]orb.Ring, len(sites))
	for i, site := range sites {
		ring := make(orb.Ring, len(box))
		copy(ring, box)
		for j, other := range sites {
			if j == i {
				continue
			}
			ring = clipHalfPlane(ring, site, other)
			if len(ring) < 3 {
				ring = nil
				break
			}
		}
		rings[i] = ring
	}
	return rings
}

// clipHalfPlane cuts a convex ring with the perpendicular bisector of a and
// b, keeping the side closer to a (equidistant points are kept, so shared
// edges belong to both adjacent cells). Sutherland-Hodgman against a single
// line; the signed test is linear in the point, so intersections are exact.
func clipHalfPlane(ring orb.Ring, a, b orb.Point) orb.Ring {
	// side(p) = |p-b|² - |p-a|²; non-negative means p is at least as close
	// to a as to b.
	side := func(p orb.Point) float64 {
		return 2*(p[0]*(a[0]-b[0])+p[1]*(a[1]-b[1])) + b[0]*b[0] + b[1]*b[1] - a[0]*a[0] - a[1]*a[1]
	}

	out := make(orb.Ring, 0, len(ring)+1)
	n := len(ring)
	for i := 0; i < n; i++ {
		cur := ring[i]
		next := ring[(i+1)%n]
		sc, sn := side(cur), side(next)

		if sc >= 0 {
			out = append(out, cur)
		}
		if (sc >= 0) != (sn >= 0) {
			t := sc / (sc - sn)
			out = append(out, orb.Point{
				cur[0] + t*(next[0]-cur[0]),
				cur[1] + t*(next[1]-cur[1]),
			})
		}
	}
	return out
}

// closeRing appends the first vertex if the ring is not already closed.
func closeRing(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return r
	}
	if r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return r
}
