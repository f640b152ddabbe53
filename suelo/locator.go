package suelo

import "github.com/paulmach/orb"

// ContainingCell returns the cell whose polygon contains the query point, or
// nil when the point lies outside every cell. Cells are disjoint by
// construction, so the first match is the only match.
func ContainingCell(cells []VoronoiCell, query orb.Point) *VoronoiCell {
	for i := range cells {
		if PointInRing(cells[i].Ring, query) {
			return &cells[i]
		}
	}
	return nil
}

// NearestSample returns the sample closest to the query point by great-circle
// distance, and that distance in kilometers. Returns nil for an empty list.
func NearestSample(samples []SamplePoint, query orb.Point) (*SamplePoint, float64) {
	var best *SamplePoint
	bestKm := 0.0
	for i := range samples {
		d := DistanceKm(samples[i].Point(), query)
		if best == nil || d < bestKm {
			best = &samples[i]
			bestKm = d
		}
	}
	return best, bestKm
}

// ParentSample picks the reference sample for a query point: the owner of the
// containing cell when one exists, otherwise the nearest sample. The fallback
// covers degenerate diagrams that leave gaps. The returned distance is always
// the great-circle distance to the nearest sample.
func ParentSample(samples []SamplePoint, cells []VoronoiCell, query orb.Point) (*SamplePoint, float64) {
	nearest, nearestKm := NearestSample(samples, query)
	if cell := ContainingCell(cells, query); cell != nil {
		for i := range samples {
			if samples[i].ID == cell.OwnerID {
				return &samples[i], nearestKm
			}
		}
	}
	return nearest, nearestKm
}
