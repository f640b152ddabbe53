package suelo

import (
	"sync"
	"time"
)

// StateTracker holds the current sample network and the latest analysis for
// the long-running service. The engine itself is stateless; this is the
// service-side cache that HTTP handlers read from and reload routines write
// to. All methods are safe for concurrent use and hand out copies, never
// internal slices.
type StateTracker struct {
	mu           sync.RWMutex
	samples      []SamplePoint
	samplesAt    time.Time
	lastAnalysis *AnalysisResult
	analysisAt   time.Time
}

// NewStateTracker creates an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{}
}

// SetSamples replaces the current sample network.
func (st *StateTracker) SetSamples(samples []SamplePoint) {
	copied := make([]SamplePoint, len(samples))
	copy(copied, samples)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.samples = copied
	st.samplesAt = time.Now()
}

// Samples returns a copy of the current sample network.
func (st *StateTracker) Samples() []SamplePoint {
	st.mu.RLock()
	defer st.mu.RUnlock()
	copied := make([]SamplePoint, len(st.samples))
	copy(copied, st.samples)
	return copied
}

// SampleCount returns the size of the current network.
func (st *StateTracker) SampleCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.samples)
}

// SamplesUpdatedAt returns when the network was last replaced; zero when it
// never was.
func (st *StateTracker) SamplesUpdatedAt() time.Time {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.samplesAt
}

// SetLastAnalysis records the most recent analysis result.
func (st *StateTracker) SetLastAnalysis(result AnalysisResult) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastAnalysis = &result
	st.analysisAt = time.Now()
}

// LastAnalysis returns the most recent analysis result, or nil if none has
// run yet.
func (st *StateTracker) LastAnalysis() *AnalysisResult {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.lastAnalysis == nil {
		return nil
	}
	result := *st.lastAnalysis
	return &result
}
