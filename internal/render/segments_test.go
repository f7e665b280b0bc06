package render

import (
	"strings"
	"testing"
	"time"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/quota"
)

func allSegments() config.SegmentsConfig {
	return config.SegmentsConfig{
		Model: true, Cost: true, Tokens: true,
		BurnRate: true, Agents: true, Quota: true,
	}
}

func TestStatuslineFull(t *testing.T) {
	cost := 1.25
	tokens := int64(45_200)
	hitRate := 62.0
	rate := 4.5

	snap := Snapshot{
		ModelName: "claude-sonnet-4-5",
		Session: model.SessionInfo{
			Cost:         &cost,
			Tokens:       &tokens,
			CacheHitRate: &hitRate,
			BurnRate:     &rate,
		},
		Agents: []model.AgentRecord{
			{ID: "a1", Status: model.AgentRunning, StartTime: time.Now()},
			{ID: "a2", Status: model.AgentCompleted, StartTime: time.Now()},
		},
		Quota: &quota.Usage{
			FiveHour: &quota.Window{Pct: 0.42},
			SevenDay: &quota.Window{Pct: 0.91},
		},
	}

	line := Statusline(snap, allSegments(), 0)
	for _, want := range []string{
		"Sonnet 4.5", "$1.25", "45.2K tok", "62% cache",
		"$4.50/hr", "⚒ 1", "✓ 1", "5h 42%", "7d 91%",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("statusline missing %q in %q", want, line)
		}
	}
}

func TestStatuslineNoData(t *testing.T) {
	line := Statusline(Snapshot{ModelName: "claude-opus-4-5"}, allSegments(), 0)
	if !strings.Contains(line, "Opus 4.5") {
		t.Errorf("missing model in %q", line)
	}
	if strings.Count(line, noData) != 3 {
		t.Errorf("want 3 placeholder segments (cost, tokens, rate) in %q", line)
	}
	if strings.Contains(line, "⚒") || strings.Contains(line, "5h") {
		t.Errorf("agents/quota segments should be omitted entirely: %q", line)
	}
}

func TestStatuslineEstimatedCostMarker(t *testing.T) {
	cost := 3.0
	snap := Snapshot{
		ModelName: "claude-sonnet-4-5",
		Session:   model.SessionInfo{Cost: &cost, IsOutputEstimated: true},
	}
	line := Statusline(snap, config.SegmentsConfig{Model: true, Cost: true}, 0)
	if !strings.Contains(line, "$3.00~") {
		t.Errorf("estimated cost should carry a marker: %q", line)
	}
}

func TestStatuslineTruncation(t *testing.T) {
	cost := 1.0
	tokens := int64(100)
	rate := 2.0
	snap := Snapshot{
		ModelName: "claude-sonnet-4-5",
		Session:   model.SessionInfo{Cost: &cost, Tokens: &tokens, BurnRate: &rate},
	}

	full := Statusline(snap, allSegments(), 0)
	short := Statusline(snap, allSegments(), 18)
	if len(short) >= len(full) {
		t.Errorf("narrow width should drop segments: full=%q short=%q", full, short)
	}
	if !strings.Contains(short, "Sonnet") {
		t.Errorf("leftmost segment must survive truncation: %q", short)
	}
}

func TestStatuslineDisabledSegments(t *testing.T) {
	cost := 1.0
	snap := Snapshot{ModelName: "claude-sonnet-4-5", Session: model.SessionInfo{Cost: &cost}}
	line := Statusline(snap, config.SegmentsConfig{Cost: true}, 0)
	if strings.Contains(line, "Sonnet") {
		t.Errorf("disabled model segment rendered: %q", line)
	}
	if !strings.Contains(line, "$1.00") {
		t.Errorf("cost segment missing: %q", line)
	}
}
