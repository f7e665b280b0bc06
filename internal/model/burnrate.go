package model

// BurnRateState is the cross-invocation smoothing memory of the burn-rate
// estimator. It lives in a shared JSON file with last-write-wins semantics;
// readers must validate every field before use.
type BurnRateState struct {
	PreviousRate    *float64 `json:"previousRate"`
	LastSessionID   string   `json:"lastSessionId"`
	LastTimestampMs int64    `json:"lastTimestampMs"`
}
