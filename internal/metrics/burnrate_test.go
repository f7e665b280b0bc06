package metrics

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cclinedev/ccline/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEstimator(store StateStore) *Estimator {
	return &Estimator{Store: store, Now: func() time.Time { return testNow }}
}

// pairedEntries returns two entries ten minutes apart, each with a reported
// cost of 0.5 USD, ending at testNow.
func pairedEntries() []model.UsageEntry {
	return []model.UsageEntry{
		entryAt(testNow.Add(-10*time.Minute), model.TokenBreakdown{Input: 1}, f64(0.5)),
		entryAt(testNow, model.TokenBreakdown{Input: 1}, f64(0.5)),
	}
}

func TestEstimate_NilOnMissingOrZeroCost(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	require.Nil(t, est.Estimate("s1", nil, pairedEntries(), Official{}))
	require.Nil(t, est.Estimate("s1", f64(0), pairedEntries(), Official{}))
	require.Zero(t, store.Saves, "nil results must not touch state")
}

func TestEstimate_FirstSampleIsRaw(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	// 1.0 USD across a 10-minute window -> 6.0 USD/hour.
	rate := est.Estimate("s1", f64(1.0), pairedEntries(), Official{})
	require.NotNil(t, rate)
	require.InDelta(t, 6.0, *rate, 1e-9)

	require.Equal(t, 1, store.Saves)
	require.Equal(t, "s1", store.State.LastSessionID)
	require.Equal(t, testNow.UnixMilli(), store.State.LastTimestampMs)
	require.InDelta(t, 6.0, *store.State.PreviousRate, 1e-9)
}

func TestEstimate_EMASecondSample(t *testing.T) {
	prev := 10.0
	store := &MemStore{State: model.BurnRateState{
		PreviousRate:    &prev,
		LastSessionID:   "s1",
		LastTimestampMs: testNow.Add(-time.Minute).UnixMilli(),
	}}
	est := newTestEstimator(store)

	rate := est.Estimate("s1", f64(1.0), pairedEntries(), Official{})
	require.NotNil(t, rate)
	// raw = 6.0, smoothed = 0.3*6.0 + 0.7*10.0 = 8.8
	require.InDelta(t, 0.3*6.0+0.7*10.0, *rate, 1e-9)
}

func TestEstimate_SessionChangeResetsEMA(t *testing.T) {
	prev := 10.0
	store := &MemStore{State: model.BurnRateState{
		PreviousRate:    &prev,
		LastSessionID:   "other-session",
		LastTimestampMs: testNow.Add(-time.Minute).UnixMilli(),
	}}
	est := newTestEstimator(store)

	rate := est.Estimate("s1", f64(1.0), pairedEntries(), Official{})
	require.NotNil(t, rate)
	require.InDelta(t, 6.0, *rate, 1e-9, "fresh session must not inherit smoothing")
}

func TestEstimate_StaleStateResetsEMA(t *testing.T) {
	prev := 10.0
	store := &MemStore{State: model.BurnRateState{
		PreviousRate:    &prev,
		LastSessionID:   "s1",
		LastTimestampMs: testNow.Add(-6 * time.Minute).UnixMilli(),
	}}
	est := newTestEstimator(store)

	rate := est.Estimate("s1", f64(1.0), pairedEntries(), Official{})
	require.NotNil(t, rate)
	require.InDelta(t, 6.0, *rate, 1e-9, "stale state must not inherit smoothing")
}

func TestEstimate_BurstClampedToMinuteFloor(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	// Both entries land inside twenty seconds. The raw span would triple
	// the rate; the one-minute floor keeps it at 1 USD per minute.
	entries := []model.UsageEntry{
		entryAt(testNow.Add(-20*time.Second), model.TokenBreakdown{Input: 1}, f64(0.5)),
		entryAt(testNow, model.TokenBreakdown{Input: 1}, f64(0.5)),
	}

	rate := est.Estimate("s1", f64(1.0), entries, Official{})
	require.NotNil(t, rate)
	require.InDelta(t, 60.0, *rate, 1e-9, "1 USD over the clamped one-minute span")
}

func TestEstimate_FullSpanFallback(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	// Second entry is two hours older than the newest, so the 15-minute
	// window holds a single entry and the full span applies.
	entries := []model.UsageEntry{
		entryAt(testNow.Add(-2*time.Hour), model.TokenBreakdown{Input: 1}, f64(0.5)),
		entryAt(testNow, model.TokenBreakdown{Input: 1}, f64(0.5)),
	}

	rate := est.Estimate("s1", f64(4.0), entries, Official{})
	require.NotNil(t, rate)
	require.InDelta(t, 2.0, *rate, 1e-9, "4 USD over 2 hours")
}

func TestEstimate_DurationFallback(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	durationMs := int64(30 * 60 * 1000)
	only := []model.UsageEntry{entryAt(testNow, model.TokenBreakdown{Input: 1}, f64(2.0))}

	rate := est.Estimate("s1", f64(2.0), only, Official{DurationMs: &durationMs})
	require.NotNil(t, rate)
	require.InDelta(t, 4.0, *rate, 1e-9, "2 USD over 30 minutes")
}

func TestEstimate_NilWhenNothingUsable(t *testing.T) {
	store := &MemStore{}
	est := newTestEstimator(store)

	only := []model.UsageEntry{entryAt(testNow, model.TokenBreakdown{Input: 1}, f64(2.0))}
	require.Nil(t, est.Estimate("s1", f64(2.0), only, Official{}))
	require.Zero(t, store.Saves)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "burnrate.json")
	store := &FileStore{Path: path}

	rate := 7.5
	store.Save(model.BurnRateState{
		PreviousRate:    &rate,
		LastSessionID:   "s1",
		LastTimestampMs: testNow.UnixMilli(),
	})

	got := store.Load()
	require.NotNil(t, got.PreviousRate)
	require.InDelta(t, 7.5, *got.PreviousRate, 1e-9)
	require.Equal(t, "s1", got.LastSessionID)
}

func TestFileStore_CorruptFileYieldsColdStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burnrate.json")
	store := &FileStore{Path: path}

	for _, payload := range []string{
		"not json",
		`{"previousRate":"NaN"}`,
		`{"previousRate":-4,"lastSessionId":"s1","lastTimestampMs":1}`,
		`{"previousRate":1,"lastSessionId":"s1","lastTimestampMs":-5}`,
	} {
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
		got := store.Load()
		require.Equal(t, model.BurnRateState{}, got, "payload %q must reset to defaults", payload)
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "nope.json")}
	require.Equal(t, model.BurnRateState{}, store.Load())
}

func TestValidStateRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01} {
		r := v
		if validState(model.BurnRateState{PreviousRate: &r}) {
			t.Errorf("validState accepted %v", v)
		}
	}
}
