// Package pricing resolves per-model token rates and computes USD costs.
package pricing

import (
	"strings"

	"github.com/cclinedev/ccline/internal/model"
)

// DefaultModel is assumed when an agent or entry declares no model.
const DefaultModel = "claude-sonnet-4-5"

// Rates holds per-million-token prices for a model.
type Rates struct {
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheWritePerMTok float64
	CacheReadPerMTok  float64
}

// table maps model base names to their rates. Overrides from the config
// file are layered on top at load time via Override.
var table = map[string]Rates{
	"claude-opus-4-5": {
		InputPerMTok: 5.00, OutputPerMTok: 25.00,
		CacheWritePerMTok: 6.25, CacheReadPerMTok: 0.50,
	},
	"claude-opus-4-1": {
		InputPerMTok: 15.00, OutputPerMTok: 75.00,
		CacheWritePerMTok: 18.75, CacheReadPerMTok: 1.50,
	},
	"claude-opus-4": {
		InputPerMTok: 15.00, OutputPerMTok: 75.00,
		CacheWritePerMTok: 18.75, CacheReadPerMTok: 1.50,
	},
	"claude-sonnet-4-5": {
		InputPerMTok: 3.00, OutputPerMTok: 15.00,
		CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.30,
	},
	"claude-sonnet-4": {
		InputPerMTok: 3.00, OutputPerMTok: 15.00,
		CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.30,
	},
	"claude-haiku-4-5": {
		InputPerMTok: 1.00, OutputPerMTok: 5.00,
		CacheWritePerMTok: 1.25, CacheReadPerMTok: 0.10,
	},
	"claude-haiku-3-5": {
		InputPerMTok: 0.80, OutputPerMTok: 4.00,
		CacheWritePerMTok: 1.00, CacheReadPerMTok: 0.08,
	},
}

// Normalize strips date suffixes from model identifiers.
// e.g., "claude-sonnet-4-5-20250929" -> "claude-sonnet-4-5"
func Normalize(raw string) string {
	if _, ok := table[raw]; ok {
		return raw
	}

	parts := strings.Split(raw, "-")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if isAllDigits(last) && len(last) >= 8 {
			candidate := strings.Join(parts[:len(parts)-1], "-")
			if _, ok := table[candidate]; ok {
				return candidate
			}
		}
	}

	return raw
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Lookup returns the rates for a model, normalizing the name first.
// Returns zero rates and false if the model is unknown.
func Lookup(m string) (Rates, bool) {
	r, ok := table[Normalize(m)]
	return r, ok
}

// Cost computes the estimated USD cost for one token breakdown.
// Unknown models fall back to DefaultModel rates so a renamed model
// still yields a rough figure instead of silently costing zero.
func Cost(m string, tokens model.TokenBreakdown) float64 {
	r, ok := Lookup(m)
	if !ok {
		r = table[DefaultModel]
	}

	cost := float64(tokens.Input) * r.InputPerMTok / 1_000_000
	cost += float64(tokens.Output) * r.OutputPerMTok / 1_000_000
	cost += float64(tokens.CacheCreation) * r.CacheWritePerMTok / 1_000_000
	cost += float64(tokens.CacheRead) * r.CacheReadPerMTok / 1_000_000
	return cost
}

// Override replaces individual rate components for a model. Nil fields
// keep the built-in value. Unknown models get a zero base first.
func Override(m string, input, output, cacheWrite, cacheRead *float64) {
	r := table[Normalize(m)]
	if input != nil {
		r.InputPerMTok = *input
	}
	if output != nil {
		r.OutputPerMTok = *output
	}
	if cacheWrite != nil {
		r.CacheWritePerMTok = *cacheWrite
	}
	if cacheRead != nil {
		r.CacheReadPerMTok = *cacheRead
	}
	table[Normalize(m)] = r
}
