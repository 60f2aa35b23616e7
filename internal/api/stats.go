package api

import (
	"maps"
	"sync"

	"github.com/weftlabs/weft/internal/decode"
)

// Snapshot is a point-in-time copy of the run counters.
type Snapshot struct {
	Files            int            `json:"files"`
	Lines            int            `json:"lines"`
	Records          int            `json:"records"`
	Fallbacks        int            `json:"coercion_fallbacks"`
	FallbacksByField map[string]int `json:"coercion_fallbacks_by_field,omitempty"`
	FieldErrors      int            `json:"field_errors"`
	Published        int            `json:"published"`
	Stored           int            `json:"stored"`
}

// Tracker aggregates decode and delivery counters across files. It is safe
// for concurrent use; the API server reads while the run loop writes.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{FallbacksByField: make(map[string]int)}}
}

// AddDecode folds one file's decode stats into the totals.
func (t *Tracker) AddDecode(s decode.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Files++
	t.snap.Lines += s.Lines
	t.snap.Records += s.Records
	t.snap.Fallbacks += s.Fallbacks
	t.snap.FieldErrors += s.FieldErrors
	for field, n := range s.FallbacksByField {
		t.snap.FallbacksByField[field] += n
	}
}

// AddDelivery records how many records reached the collaborators.
func (t *Tracker) AddDelivery(published, stored int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Published += published
	t.snap.Stored += stored
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.snap
	snap.FallbacksByField = maps.Clone(t.snap.FallbacksByField)
	return snap
}
