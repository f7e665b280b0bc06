// Package metrics folds usage entries into session metrics and estimates
// the smoothed spend velocity.
package metrics

import (
	"math"

	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/pricing"
)

// Official carries the host-reported totals from the stdin payload.
// Either field may be absent.
type Official struct {
	TotalCostUSD *float64
	DurationMs   *int64
}

// Summarize folds a parsed entry stream into SessionInfo.
//
// Two cost lineages are kept: the calculated lineage sums per-entry reported
// costs, pricing any entry that lacks one, and is always preferred. The
// official lineage is the host-reported total, used verbatim only when zero
// entries were parsed locally. The two are never mixed within one total.
//
// Zero entries yields nil metrics rather than zeros, so the renderer can
// distinguish "no data" from "zero usage".
func Summarize(entries []model.UsageEntry, official Official, outputEstimated bool) model.SessionInfo {
	info := model.SessionInfo{
		OfficialCost:      official.TotalCostUSD,
		IsOutputEstimated: outputEstimated,
	}

	if len(entries) == 0 {
		info.Cost = official.TotalCostUSD
		return info
	}

	var breakdown model.TokenBreakdown
	var calculated float64
	for _, e := range entries {
		breakdown.Add(e.Tokens)
		calculated += EntryCost(e)
	}

	total := breakdown.Total()
	info.Tokens = &total
	info.TokenBreakdown = &breakdown
	info.CalculatedCost = &calculated
	info.Cost = &calculated

	if denom := breakdown.CacheableTokens(); denom > 0 {
		rate := math.Round(float64(breakdown.CacheRead) / float64(denom) * 100)
		info.CacheHitRate = &rate
	}

	return info
}

// EntryCost returns one entry's USD cost, preferring the cost the transcript
// itself reported and pricing the tokens otherwise.
func EntryCost(e model.UsageEntry) float64 {
	if e.CostUSD != nil {
		return *e.CostUSD
	}
	return pricing.Cost(e.Model, e.Tokens)
}
