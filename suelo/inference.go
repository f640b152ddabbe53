package suelo

import "fmt"

// qadmSpreadNoteThreshold is the bearing-capacity range (ton/m²) above which
// an observation string is generated alongside the estimate.
const qadmSpreadNoteThreshold = 5.0

// InferSoilData aggregates neighbor attributes into an estimated record for
// the query site. Numerics use the natural-neighbor weighted mean (plus the
// observed min/max); categoricals use a weight-weighted mode with first-seen
// tie-breaking; booleans use a majority vote among the neighbors that report
// them. Attributes absent from every neighbor stay nil. Zero neighbors yield
// a fully-absent record with no observations, never an error.
//
// The categorical vote is weighted by natural-neighbor weight rather than by
// raw occurrence count, keeping it consistent with the numeric aggregation.
func InferSoilData(neighbors []NaturalNeighborWeight) InferredSoilData {
	var out InferredSoilData
	if len(neighbors) == 0 {
		out.Observations = []string{}
		return out
	}

	out.Qadm = weightedMean(neighbors, func(s *SamplePoint) *float64 { return s.Qadm })
	out.FoundationDepth = weightedMean(neighbors, func(s *SamplePoint) *float64 { return s.FoundationDepth })
	out.GroundwaterDepth = weightedMean(neighbors, func(s *SamplePoint) *float64 { return s.GroundwaterDepth })

	out.SoilType = weightedMode(neighbors, func(s *SamplePoint) *string { return s.SoilType })
	out.SUCSClass = weightedMode(neighbors, func(s *SamplePoint) *string { return s.SUCSClass })
	out.FoundationType = weightedMode(neighbors, func(s *SamplePoint) *string { return s.FoundationType })

	out.HasGroundwater = majorityVote(neighbors, func(s *SamplePoint) *bool { return s.HasGroundwater })
	out.NeedsImprovement = majorityVote(neighbors, func(s *SamplePoint) *bool { return s.NeedsImprovement })

	out.Observations = buildObservations(out)
	return out
}

// weightedMean averages an optional numeric attribute over the neighbors that
// carry it, weighting by natural-neighbor weight, and records the observed
// range. Returns nil when no neighbor has the attribute.
func weightedMean(neighbors []NaturalNeighborWeight, get func(*SamplePoint) *float64) *NumericEstimate {
	var sum, weightSum float64
	var min, max float64
	seen := false

	for i := range neighbors {
		v := get(&neighbors[i].Sample)
		if v == nil {
			continue
		}
		w := neighbors[i].Weight
		sum += *v * w
		weightSum += w
		if !seen || *v < min {
			min = *v
		}
		if !seen || *v > max {
			max = *v
		}
		seen = true
	}
	if !seen || weightSum <= 0 {
		return nil
	}
	return &NumericEstimate{Value: sum / weightSum, Min: min, Max: max}
}

// weightedMode returns the categorical value with the highest accumulated
// weight among the neighbors that carry the attribute. Ties resolve to the
// value seen first in neighbor order, which is itself deterministic.
func weightedMode(neighbors []NaturalNeighborWeight, get func(*SamplePoint) *string) *string {
	type vote struct {
		value  string
		weight float64
	}
	var votes []vote
	index := make(map[string]int)

	for i := range neighbors {
		v := get(&neighbors[i].Sample)
		if v == nil {
			continue
		}
		if j, ok := index[*v]; ok {
			votes[j].weight += neighbors[i].Weight
		} else {
			index[*v] = len(votes)
			votes = append(votes, vote{value: *v, weight: neighbors[i].Weight})
		}
	}
	if len(votes) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i].weight > votes[best].weight {
			best = i
		}
	}
	return &votes[best].value
}

// majorityVote resolves an optional boolean to true when more than half of
// the neighbors that report it report true. Returns nil when none report it.
func majorityVote(neighbors []NaturalNeighborWeight, get func(*SamplePoint) *bool) *bool {
	total, trues := 0, 0
	for i := range neighbors {
		v := get(&neighbors[i].Sample)
		if v == nil {
			continue
		}
		total++
		if *v {
			trues++
		}
	}
	if total == 0 {
		return nil
	}
	result := trues*2 > total
	return &result
}

// buildObservations generates the human-readable notes attached to an
// inferred record.
func buildObservations(data InferredSoilData) []string {
	obs := []string{}

	if data.Qadm != nil && data.Qadm.Max-data.Qadm.Min > qadmSpreadNoteThreshold {
		obs = append(obs, fmt.Sprintf(
			"high Qadm variability among neighbors (%.1f to %.1f ton/m2); site-specific survey recommended",
			data.Qadm.Min, data.Qadm.Max))
	}

	if data.HasGroundwater != nil && *data.HasGroundwater {
		if data.GroundwaterDepth != nil {
			obs = append(obs, fmt.Sprintf(
				"groundwater table likely present near %.1f m depth", data.GroundwaterDepth.Value))
		} else {
			obs = append(obs, "groundwater table likely present")
		}
	}

	if data.NeedsImprovement != nil && *data.NeedsImprovement {
		obs = append(obs, "soil improvement likely required")
	}

	return obs
}
