package suelo

import (
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// NewStateTracker
// ---------------------------------------------------------------------------

func TestNewStateTracker(t *testing.T) {
	st := NewStateTracker()
	if st == nil {
		t.Fatal("NewStateTracker returned nil")
	}
	if st.SampleCount() != 0 {
		t.Error("new tracker should have zero samples")
	}
	if st.LastAnalysis() != nil {
		t.Error("new tracker should have no analysis")
	}
	if !st.SamplesUpdatedAt().IsZero() {
		t.Error("new tracker should have a zero update time")
	}
}

// ---------------------------------------------------------------------------
// SetSamples / Samples
// ---------------------------------------------------------------------------

func TestStateTracker_SetSamples(t *testing.T) {
	st := NewStateTracker()
	st.SetSamples(testSamples())

	if st.SampleCount() != 3 {
		t.Errorf("SampleCount = %d, want 3", st.SampleCount())
	}
	if st.SamplesUpdatedAt().IsZero() {
		t.Error("update time not set")
	}

	got := st.Samples()
	if len(got) != 3 || got[0].Name != "Centro" {
		t.Errorf("Samples() = %d entries, first %q", len(got), got[0].Name)
	}
}

func TestStateTracker_SamplesReturnsCopy(t *testing.T) {
	st := NewStateTracker()
	st.SetSamples(testSamples())

	got := st.Samples()
	got[0].Name = "mutated"

	if st.Samples()[0].Name != "Centro" {
		t.Error("mutating the returned slice leaked into the tracker")
	}
}

func TestStateTracker_SetSamplesCopiesInput(t *testing.T) {
	st := NewStateTracker()
	input := testSamples()
	st.SetSamples(input)

	input[0].Name = "mutated"
	if st.Samples()[0].Name != "Centro" {
		t.Error("mutating the input slice leaked into the tracker")
	}
}

// ---------------------------------------------------------------------------
// SetLastAnalysis / LastAnalysis
// ---------------------------------------------------------------------------

func TestStateTracker_LastAnalysis(t *testing.T) {
	st := NewStateTracker()
	result := Analyze(testSamples(), testQuery, DefaultBounds())
	st.SetLastAnalysis(result)

	got := st.LastAnalysis()
	if got == nil {
		t.Fatal("LastAnalysis is nil after set")
	}
	if got.Confidence != result.Confidence {
		t.Errorf("Confidence = %g, want %g", got.Confidence, result.Confidence)
	}

	// The returned pointer is a copy, not internal state.
	got.Confidence = -1
	if st.LastAnalysis().Confidence == -1 {
		t.Error("mutating the returned result leaked into the tracker")
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestStateTracker_ConcurrentAccess(t *testing.T) {
	st := NewStateTracker()
	samples := testSamples()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				st.SetSamples(samples)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = st.Samples()
				_ = st.SampleCount()
			}
		}()
	}
	wg.Wait()

	if st.SampleCount() != 3 {
		t.Errorf("SampleCount = %d, want 3", st.SampleCount())
	}
}
