package metrics

import (
	"sort"
	"time"

	"github.com/cclinedev/ccline/internal/model"
)

const (
	// emaAlpha weights the newest raw sample: responsive but not jumpy.
	emaAlpha = 0.3
	// stateStaleAfter resets the smoothing memory when the persisted state
	// is older than this.
	stateStaleAfter = 5 * time.Minute
	// rateWindow is the preferred sliding window for the raw rate.
	rateWindow = 15 * time.Minute
	// minSpan clamps tiny time spans so a burst of entries in a few seconds
	// does not explode into an absurd hourly rate.
	minSpan = time.Minute
)

// Estimator computes a smoothed USD/hour spend velocity. The EMA memory
// lives in a StateStore so it survives the short-lived CLI invocations.
type Estimator struct {
	Store StateStore
	Now   func() time.Time // test hook; defaults to time.Now
}

// NewEstimator returns an estimator backed by the given store.
func NewEstimator(store StateStore) *Estimator {
	return &Estimator{Store: store, Now: time.Now}
}

// Estimate returns the smoothed rate, or nil when no rate can be derived.
// Whenever a non-nil rate is produced the updated state is persisted;
// a nil result never touches the store.
func (e *Estimator) Estimate(sessionID string, cost *float64, entries []model.UsageEntry, official Official) *float64 {
	if cost == nil || *cost == 0 {
		return nil
	}

	now := e.now()
	state := e.Store.Load()

	// A different session, or state older than the staleness threshold,
	// starts a fresh EMA.
	if state.LastSessionID != sessionID || e.stateStale(state, now) {
		state.PreviousRate = nil
	}

	raw, ok := rawRate(*cost, entries, official)
	if !ok {
		return nil
	}

	smoothed := raw
	if state.PreviousRate != nil {
		smoothed = raw*emaAlpha + *state.PreviousRate*(1-emaAlpha)
	}

	state.PreviousRate = &smoothed
	state.LastSessionID = sessionID
	state.LastTimestampMs = now.UnixMilli()
	e.Store.Save(state)

	return &smoothed
}

func (e *Estimator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Estimator) stateStale(state model.BurnRateState, now time.Time) bool {
	if state.LastTimestampMs <= 0 {
		return true
	}
	return now.Sub(time.UnixMilli(state.LastTimestampMs)) > stateStaleAfter
}

// rawRate derives the instantaneous USD/hour rate, in priority order:
// a 15-minute sliding window over the newest entries, the full entry span,
// then the host-reported wall-clock duration.
func rawRate(cost float64, entries []model.UsageEntry, official Official) (float64, bool) {
	if r, ok := windowRate(entries); ok {
		return r, true
	}
	if r, ok := spanRate(cost, entries); ok {
		return r, true
	}
	if official.DurationMs != nil && *official.DurationMs > 0 {
		hours := float64(*official.DurationMs) / float64(time.Hour/time.Millisecond)
		return cost / hours, true
	}
	return 0, false
}

// windowRate sums entry costs within rateWindow of the newest entry.
// Requires at least two entries in the window.
func windowRate(entries []model.UsageEntry) (float64, bool) {
	if len(entries) < 2 {
		return 0, false
	}

	sorted := make([]model.UsageEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	newest := sorted[len(sorted)-1].Timestamp
	cutoff := newest.Add(-rateWindow)

	var windowCost float64
	var oldest time.Time
	count := 0
	for _, e := range sorted {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		if count == 0 {
			oldest = e.Timestamp
		}
		windowCost += EntryCost(e)
		count++
	}

	if count < 2 {
		return 0, false
	}

	span := newest.Sub(oldest)
	if span < minSpan {
		span = minSpan
	}
	return windowCost / span.Hours(), true
}

// spanRate spreads the total cost over the full entry time span.
// The span must exceed one minute to be usable.
func spanRate(cost float64, entries []model.UsageEntry) (float64, bool) {
	if len(entries) < 2 {
		return 0, false
	}

	first, last := entries[0].Timestamp, entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}

	span := last.Sub(first)
	if span <= minSpan {
		return 0, false
	}
	return cost / span.Hours(), true
}
