package suelo

import (
	"sort"

	"github.com/paulmach/orb"
)

// queryCellOwnerID marks the synthetic cell created for the query point
// itself; it never collides with real sample ids, which are positive.
const queryCellOwnerID int64 = -1

// NaturalNeighbors computes the natural-neighbor ("stolen area") weights of a
// query point against the sample network. The diagram is built twice, without
// and with the query point inserted as a synthetic site; each sample's weight
// is the cell area it lost, normalized to sum to 1. Samples that lose nothing
// have no geometric influence and are excluded entirely.
//
// The second return value is the query point's own inserted cell, for
// rendering. Fewer than 3 samples cannot bound stolen area meaningfully, so
// both results are nil in that case.
func NaturalNeighbors(samples []SamplePoint, query orb.Point, bounds BoundingBox) ([]NaturalNeighborWeight, *VoronoiCell) {
	if len(samples) < 3 {
		return nil, nil
	}

	proj := NewProjection(bounds)
	box := boxRing(bounds, proj)

	sites := make([]orb.Point, len(samples), len(samples)+1)
	for i, s := range samples {
		sites[i] = proj.Project(s.Point())
	}

	before := cellRings(sites, box)
	after := cellRings(append(sites, proj.Project(query)), box)

	var totalStolen float64
	stolen := make([]float64, len(samples))
	for i := range samples {
		if before[i] == nil {
			continue
		}
		area := RingArea(before[i])
		newArea := 0.0
		if after[i] != nil {
			newArea = RingArea(after[i])
		}
		if d := area - newArea; d > 0 {
			stolen[i] = d
			totalStolen += d
		}
	}
	if totalStolen <= 0 {
		return nil, queryCell(after[len(samples)], proj)
	}

	weights := make([]NaturalNeighborWeight, 0, len(samples))
	for i := range samples {
		if stolen[i] <= 0 {
			continue
		}
		weights = append(weights, NaturalNeighborWeight{
			Sample:        samples[i],
			DistanceKm:    DistanceKm(samples[i].Point(), query),
			StolenAreaKm2: stolen[i],
			Weight:        stolen[i] / totalStolen,
		})
	}

	// Descending by weight; distance then id break ties so repeated runs
	// order identical inputs identically.
	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		if weights[i].DistanceKm != weights[j].DistanceKm {
			return weights[i].DistanceKm < weights[j].DistanceKm
		}
		return weights[i].Sample.ID < weights[j].Sample.ID
	})

	return weights, queryCell(after[len(samples)], proj)
}

// queryCell wraps the inserted site's planar ring as a synthetic VoronoiCell.
func queryCell(ring orb.Ring, proj Projection) *VoronoiCell {
	if ring == nil {
		return nil
	}
	area := RingArea(ring)
	if area < minCellAreaKm2 {
		return nil
	}
	return &VoronoiCell{
		OwnerID:  queryCellOwnerID,
		Ring:     closeRing(proj.UnprojectRing(ring)),
		AreaKm2:  area,
		Centroid: proj.Unproject(RingCentroid(ring)),
	}
}
