package metrics

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/cclinedev/ccline/internal/model"
)

// StateStore loads and saves the burn-rate smoothing state. The estimator
// only sees this interface so tests can substitute an in-memory store.
type StateStore interface {
	// Load returns the persisted state, or a zero state when the backing
	// data is missing or fails validation. It never returns an error: a
	// corrupted state file is equivalent to a cold start.
	Load() model.BurnRateState
	// Save persists the state best-effort. Concurrent writers race with
	// last-write-wins semantics; a lost update only costs one smoothing
	// step, so no locking is taken.
	Save(state model.BurnRateState)
}

// FileStore persists state as a small JSON document in the cache directory,
// shared by every ccline invocation on the host.
type FileStore struct {
	Path string
}

// Load reads and validates the state file. Every field is checked before
// use so a corrupt or hand-edited file can never push NaN or negative
// values into a rate calculation.
func (s *FileStore) Load() model.BurnRateState {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.BurnRateState{}
	}

	var state model.BurnRateState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.BurnRateState{}
	}
	if !validState(state) {
		return model.BurnRateState{}
	}
	return state
}

// Save writes the state file, creating the cache directory if needed.
// Failures are swallowed: the state is advisory and safe to lose.
func (s *FileStore) Save(state model.BurnRateState) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.Path, data, 0o600)
}

func validState(state model.BurnRateState) bool {
	if state.PreviousRate != nil {
		r := *state.PreviousRate
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return false
		}
	}
	return state.LastTimestampMs >= 0
}

// MemStore is an in-memory StateStore for tests.
type MemStore struct {
	State model.BurnRateState
	Saves int
}

// Load returns the held state.
func (m *MemStore) Load() model.BurnRateState { return m.State }

// Save replaces the held state and counts the write.
func (m *MemStore) Save(state model.BurnRateState) {
	m.State = state
	m.Saves++
}
