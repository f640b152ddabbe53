package suelo

// InfluenceRadiusKm is the distance at which proximity stops contributing to
// confidence: the distance factor decays linearly from 1 at the sample to 0
// at this radius and beyond.
const InfluenceRadiusKm = 50.0

// ConfidenceScore combines proximity to the nearest sample with the weight of
// the single strongest natural neighbor into a 0-100 score:
//
//	confidence = (distanceFactor*0.6 + topWeight*0.4) * 100
//
// With no neighbors the consistency term is 0 and the score rests on
// proximity alone. Callers with zero samples must report 0 directly.
func ConfidenceScore(nearestKm float64, neighbors []NaturalNeighborWeight) float64 {
	distanceFactor := 1.0 - nearestKm/InfluenceRadiusKm
	if distanceFactor < 0 {
		distanceFactor = 0
	}

	consistency := 0.0
	if len(neighbors) > 0 {
		consistency = neighbors[0].Weight
	}

	return (distanceFactor*0.6 + consistency*0.4) * 100
}
