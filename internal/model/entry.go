// Package model defines domain types shared by the ccline engine.
package model

import "time"

// UsageEntry is one assistant turn extracted from a session transcript.
// Immutable once parsed.
type UsageEntry struct {
	Timestamp   time.Time
	Tokens      TokenBreakdown
	CostUSD     *float64 // present when the transcript already reports a cost
	Model       string
	IsSidechain bool
}

// TokenBreakdown splits a turn's token usage by billing category.
type TokenBreakdown struct {
	Input         int64
	Output        int64
	CacheCreation int64
	CacheRead     int64
}

// Total returns the sum of all four token categories.
func (t TokenBreakdown) Total() int64 {
	return t.Input + t.Output + t.CacheCreation + t.CacheRead
}

// Add accumulates other into t.
func (t *TokenBreakdown) Add(other TokenBreakdown) {
	t.Input += other.Input
	t.Output += other.Output
	t.CacheCreation += other.CacheCreation
	t.CacheRead += other.CacheRead
}

// CacheableTokens returns the denominator of the cache-hit calculation:
// every input-side token that could have been served from cache.
func (t TokenBreakdown) CacheableTokens() int64 {
	return t.Input + t.CacheCreation + t.CacheRead
}
