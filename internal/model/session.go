package model

// SessionInfo holds the per-invocation usage metrics for one session.
// Nil pointer fields mean "no data", which renders differently from zero.
type SessionInfo struct {
	// Cost prefers CalculatedCost and falls back to OfficialCost only
	// when no entries could be parsed locally.
	Cost           *float64
	CalculatedCost *float64 // summed/priced from transcript entries
	OfficialCost   *float64 // reported by the host on stdin, used verbatim

	Tokens         *int64
	TokenBreakdown *TokenBreakdown
	CacheHitRate   *float64 // percent, nil when no cacheable tokens exist

	BurnRate *float64 // smoothed USD/hour, nil when unavailable

	// IsOutputEstimated is set when the entry stream was tail-truncated,
	// so token totals undercount the full session.
	IsOutputEstimated bool
}
