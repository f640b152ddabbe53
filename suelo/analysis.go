package suelo

import (
	"time"

	"github.com/paulmach/orb"
)

// Analyze runs the full interpolation pipeline for one query coordinate:
// diagram construction, parent selection, natural-neighbor weighting,
// confidence scoring, heterogeneity detection, and soil property inference.
//
// It is a pure function of its inputs: no I/O, no retained state, and
// identical inputs always produce identical results, so it is safe to call
// concurrently from independent callers. Every degenerate input (no samples,
// too few samples, query outside the network) yields a well-formed,
// emptier-than-usual result rather than an error.
func Analyze(samples []SamplePoint, query orb.Point, bounds BoundingBox) AnalysisResult {
	result := AnalysisResult{
		Query:     query,
		Neighbors: []NaturalNeighborWeight{},
		Inferred:  InferredSoilData{Observations: []string{}},
	}
	if len(samples) == 0 {
		return result
	}

	result.Cells = BuildDiagram(samples, bounds)
	result.Parent, result.NearestDistanceKm = ParentSample(samples, result.Cells, query)

	neighbors, qCell := NaturalNeighbors(samples, query, bounds)
	if neighbors != nil {
		result.Neighbors = neighbors
	}
	result.QueryCell = qCell

	result.Confidence = ConfidenceScore(result.NearestDistanceKm, result.Neighbors)
	result.IsWithinNetwork = withinNetwork(samples, query)

	result.Inferred = InferSoilData(result.Neighbors)
	result.Heterogeneity = DetectHeterogeneity(result.Neighbors)

	return result
}

// withinNetwork reports whether the query point lies inside the convex
// influence area of the sample network. Fewer than 3 non-collinear samples
// span no area, so the answer is false.
func withinNetwork(samples []SamplePoint, query orb.Point) bool {
	points := make([]orb.Point, len(samples))
	for i, s := range samples {
		points[i] = s.Point()
	}
	hull := ConvexHull(points)
	if hull == nil {
		return false
	}
	return PointInRing(hull, query)
}

// NewInferredRecord packages an analysis into the persistence contract handed
// to the store and the publisher. The id, name, and timestamp come from the
// caller so the engine itself stays pure.
func NewInferredRecord(id, name string, result AnalysisResult, createdAt time.Time) InferredRecord {
	rec := InferredRecord{
		ID:         id,
		Name:       name,
		Lat:        result.Query[1],
		Lon:        result.Query[0],
		DistanceKm: result.NearestDistanceKm,
		Confidence: result.Confidence,
		CreatedAt:  createdAt,
		Data:       result.Inferred,
	}
	if result.Parent != nil {
		parentID := result.Parent.ID
		rec.ParentID = &parentID
		rec.ParentName = result.Parent.Name
	}
	return rec
}
