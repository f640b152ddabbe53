package suelo

import (
	"math"
	"testing"
)

func neighborsWithQadm(values ...float64) []NaturalNeighborWeight {
	out := make([]NaturalNeighborWeight, len(values))
	for i, v := range values {
		out[i] = NaturalNeighborWeight{
			Sample: SamplePoint{ID: int64(i + 1), Name: string(rune('A' + i)), Qadm: floatPtr(v)},
			Weight: 1.0 / float64(len(values)),
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// DetectHeterogeneity - numeric fields
// ---------------------------------------------------------------------------

func TestDetectHeterogeneity_HighQadmSpread(t *testing.T) {
	// Qadm 10 and 25: spread ratio (25-10)/17.5 ≈ 0.857, above the high mark.
	alert := DetectHeterogeneity(neighborsWithQadm(10, 25))
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high", alert.Severity)
	}
	if len(alert.Fields) != 1 || alert.Fields[0].Field != "qadm" {
		t.Fatalf("flagged fields = %+v, want just qadm", alert.Fields)
	}
	if got := alert.Fields[0].Variance; math.Abs(got-15.0/17.5) > 1e-9 {
		t.Errorf("variance = %g, want %g", got, 15.0/17.5)
	}
	if len(alert.Fields[0].Values) != 2 {
		t.Errorf("raw values = %v, want 2 entries", alert.Fields[0].Values)
	}
}

func TestDetectHeterogeneity_LowQadmSpread(t *testing.T) {
	// Qadm 10 and 12: spread ratio (12-10)/11 ≈ 0.18, no alert.
	if alert := DetectHeterogeneity(neighborsWithQadm(10, 12)); alert != nil {
		t.Errorf("expected no alert, got severity %s", alert.Severity)
	}
}

func TestDetectHeterogeneity_MediumSeverity(t *testing.T) {
	// Spread ratio (16-10)/13 ≈ 0.46: flagged would need > 0.5, so widen a
	// touch. 10 and 18: (18-10)/14 ≈ 0.571, flagged, medium (0.4 < v <= 0.7).
	alert := DetectHeterogeneity(neighborsWithQadm(10, 18))
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.Severity != SeverityMedium {
		t.Errorf("severity = %s, want medium", alert.Severity)
	}
}

func TestDetectHeterogeneity_SingleValueNotFlagged(t *testing.T) {
	// One neighbor carrying the attribute cannot disagree with anyone.
	if alert := DetectHeterogeneity(neighborsWithQadm(10)); alert != nil {
		t.Error("single value should not be flagged")
	}
}

func TestDetectHeterogeneity_AllZeroValues(t *testing.T) {
	if alert := DetectHeterogeneity(neighborsWithQadm(0, 0, 0)); alert != nil {
		t.Error("all-zero values should not be flagged")
	}
}

// ---------------------------------------------------------------------------
// DetectHeterogeneity - categorical fields
// ---------------------------------------------------------------------------

func TestDetectHeterogeneity_CategoricalDisagreement(t *testing.T) {
	neighbors := []NaturalNeighborWeight{
		{Sample: SamplePoint{ID: 1, Name: "A", SoilType: strPtr("arcilla")}, Weight: 0.5},
		{Sample: SamplePoint{ID: 2, Name: "B", SoilType: strPtr("arena")}, Weight: 0.5},
	}
	alert := DetectHeterogeneity(neighbors)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	// 2 distinct / 2 total = 1.0: high.
	if alert.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high", alert.Severity)
	}
	if alert.Fields[0].Field != "tipo_suelo" {
		t.Errorf("flagged field = %s, want tipo_suelo", alert.Fields[0].Field)
	}
}

func TestDetectHeterogeneity_CategoricalAgreement(t *testing.T) {
	neighbors := []NaturalNeighborWeight{
		{Sample: SamplePoint{ID: 1, Name: "A", SoilType: strPtr("arcilla")}, Weight: 0.5},
		{Sample: SamplePoint{ID: 2, Name: "B", SoilType: strPtr("arcilla")}, Weight: 0.5},
	}
	if alert := DetectHeterogeneity(neighbors); alert != nil {
		t.Error("agreeing neighbors should not be flagged")
	}
}

func TestDetectHeterogeneity_MultipleFields(t *testing.T) {
	neighbors := []NaturalNeighborWeight{
		{Sample: SamplePoint{ID: 1, Name: "A", Qadm: floatPtr(10), SoilType: strPtr("arcilla")}, Weight: 0.5},
		{Sample: SamplePoint{ID: 2, Name: "B", Qadm: floatPtr(25), SoilType: strPtr("arena")}, Weight: 0.5},
	}
	alert := DetectHeterogeneity(neighbors)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if len(alert.Fields) != 2 {
		t.Errorf("flagged %d fields, want 2", len(alert.Fields))
	}
	if alert.Message == "" {
		t.Error("alert message is empty")
	}
}

func TestDetectHeterogeneity_NoNeighbors(t *testing.T) {
	if alert := DetectHeterogeneity(nil); alert != nil {
		t.Error("no neighbors should yield no alert")
	}
}

// ---------------------------------------------------------------------------
// spreadRatio
// ---------------------------------------------------------------------------

func TestSpreadRatio(t *testing.T) {
	cases := []struct {
		values []float64
		want   float64
	}{
		{[]float64{10, 25}, 15.0 / 17.5},
		{[]float64{10, 12}, 2.0 / 11.0},
		{[]float64{5, 5, 5}, 0},
		{[]float64{0, 0}, 0},
	}
	for _, c := range cases {
		if got := spreadRatio(c.values); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("spreadRatio(%v) = %g, want %g", c.values, got, c.want)
		}
	}
}
