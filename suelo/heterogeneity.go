package suelo

import (
	"fmt"
	"strings"
)

// Disagreement thresholds: a numeric field is flagged when its spread ratio
// exceeds numericFlagThreshold; the overall alert severity steps up at the
// medium and high marks.
const (
	numericFlagThreshold    = 0.5
	severityMediumThreshold = 0.4
	severityHighThreshold   = 0.7
)

// numericField exposes one optional numeric attribute for aggregation.
type numericField struct {
	name string
	get  func(*SamplePoint) *float64
}

// categoricalField exposes one optional categorical attribute.
type categoricalField struct {
	name string
	get  func(*SamplePoint) *string
}

var numericFields = []numericField{
	{"qadm", func(s *SamplePoint) *float64 { return s.Qadm }},
	{"profundidad_desplante", func(s *SamplePoint) *float64 { return s.FoundationDepth }},
	{"profundidad_naf", func(s *SamplePoint) *float64 { return s.GroundwaterDepth }},
}

var categoricalFields = []categoricalField{
	{"tipo_suelo", func(s *SamplePoint) *string { return s.SoilType }},
	{"clasificacion_sucs", func(s *SamplePoint) *string { return s.SUCSClass }},
	{"tipo_cimentacion", func(s *SamplePoint) *string { return s.FoundationType }},
}

// DetectHeterogeneity scans the neighbor set for attributes whose values
// disagree strongly. Numeric fields present in at least two neighbors use the
// spread ratio (max-min)/average; categorical fields use distinct/total and
// are flagged as soon as more than one distinct value appears. Returns nil
// when nothing is flagged.
func DetectHeterogeneity(neighbors []NaturalNeighborWeight) *HeterogeneityAlert {
	var flagged []FieldDisagreement
	maxVariance := 0.0

	for _, f := range numericFields {
		var values []float64
		var raw []string
		for i := range neighbors {
			s := &neighbors[i].Sample
			if v := f.get(s); v != nil {
				values = append(values, *v)
				raw = append(raw, fmt.Sprintf("%s: %.2f", s.Name, *v))
			}
		}
		if len(values) < 2 {
			continue
		}
		variance := spreadRatio(values)
		if variance <= numericFlagThreshold {
			continue
		}
		flagged = append(flagged, FieldDisagreement{Field: f.name, Values: raw, Variance: variance})
		if variance > maxVariance {
			maxVariance = variance
		}
	}

	for _, f := range categoricalFields {
		distinct := make(map[string]struct{})
		var raw []string
		total := 0
		for i := range neighbors {
			s := &neighbors[i].Sample
			if v := f.get(s); v != nil {
				distinct[*v] = struct{}{}
				raw = append(raw, fmt.Sprintf("%s: %s", s.Name, *v))
				total++
			}
		}
		if total < 2 || len(distinct) < 2 {
			continue
		}
		variance := float64(len(distinct)) / float64(total)
		flagged = append(flagged, FieldDisagreement{Field: f.name, Values: raw, Variance: variance})
		if variance > maxVariance {
			maxVariance = variance
		}
	}

	if len(flagged) == 0 {
		return nil
	}

	severity := SeverityLow
	switch {
	case maxVariance > severityHighThreshold:
		severity = SeverityHigh
	case maxVariance > severityMediumThreshold:
		severity = SeverityMedium
	}

	names := make([]string, len(flagged))
	for i, f := range flagged {
		names[i] = f.Field
	}

	return &HeterogeneityAlert{
		Severity: severity,
		Message:  fmt.Sprintf("neighboring samples disagree on: %s", strings.Join(names, ", ")),
		Fields:   flagged,
	}
}

// spreadRatio returns (max-min)/average for a non-empty value set, or 0 when
// the average is 0 (all-zero values cannot disagree meaningfully).
func spreadRatio(values []float64) float64 {
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(values))
	if avg == 0 {
		return 0
	}
	return (max - min) / avg
}
