package metrics

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/cclinedev/ccline/internal/model"
)

// BlockDuration is the length of one billing block, matching the
// host's five-hour rate-limit window.
const BlockDuration = 5 * time.Hour

// WindowStats is one aggregation window: a calendar day or a billing
// block. Costs follow the same lineage rule as Summarize: per-entry
// costUSD when present, priced from tokens otherwise.
type WindowStats struct {
	Start   time.Time
	End     time.Time
	Entries int
	Tokens  model.TokenBreakdown
	Cost    float64
}

// DailyStats buckets entries by UTC calendar day, most recent first.
// Days without entries are not materialized.
func DailyStats(entries []model.UsageEntry) []WindowStats {
	byDay := lo.GroupBy(entries, func(e model.UsageEntry) time.Time {
		return e.Timestamp.UTC().Truncate(24 * time.Hour)
	})

	days := lo.MapToSlice(byDay, func(day time.Time, group []model.UsageEntry) WindowStats {
		return foldWindow(day, day.Add(24*time.Hour), group)
	})
	sort.Slice(days, func(i, j int) bool { return days[i].Start.After(days[j].Start) })
	return days
}

// BillingBlocks buckets entries into five-hour blocks anchored at the
// first entry's hour, most recent first. The current block is first
// when the entries are in transcript order.
func BillingBlocks(entries []model.UsageEntry) []WindowStats {
	if len(entries) == 0 {
		return nil
	}

	anchor := entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp.Before(anchor) {
			anchor = e.Timestamp
		}
	}
	anchor = anchor.UTC().Truncate(time.Hour)

	byBlock := lo.GroupBy(entries, func(e model.UsageEntry) time.Time {
		n := e.Timestamp.Sub(anchor) / BlockDuration
		return anchor.Add(n * BlockDuration)
	})

	blocks := lo.MapToSlice(byBlock, func(start time.Time, group []model.UsageEntry) WindowStats {
		return foldWindow(start, start.Add(BlockDuration), group)
	})
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start.After(blocks[j].Start) })
	return blocks
}

func foldWindow(start, end time.Time, group []model.UsageEntry) WindowStats {
	w := WindowStats{Start: start, End: end, Entries: len(group)}
	for _, e := range group {
		w.Tokens.Add(e.Tokens)
		w.Cost += EntryCost(e)
	}
	return w
}
