package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/model"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return &Engine{
		Config:   config.DefaultConfig(),
		CacheDir: t.TempDir(),
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	}
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session-1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func assistantLine(ts string, costUSD string, in, out int) string {
	return `{"type":"assistant","timestamp":"` + ts + `","sessionId":"session-1",` +
		costUSD +
		`"message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":` + strconv.Itoa(in) +
		`,"output_tokens":` + strconv.Itoa(out) + `,"cache_read_input_tokens":300,"cache_creation_input_tokens":100}}}`
}

func TestSnapshotFullPipeline(t *testing.T) {
	transcript := writeTranscript(t,
		assistantLine("2026-08-29T11:45:00Z", `"costUSD":0.25,`, 1000, 200),
		`{"type":"assistant","timestamp":"2026-08-29T11:50:00Z","message":{"model":"claude-sonnet-4-5","content":[{"type":"tool_use","id":"toolu_01","name":"Task","input":{"subagent_type":"researcher","description":"find docs"}}],"usage":{"input_tokens":50,"output_tokens":20}}}`,
		`{"type":"user","timestamp":"2026-08-29T11:51:00Z","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_01","content":"done"}]}}`,
		assistantLine("2026-08-29T11:55:00Z", `"costUSD":0.35,`, 2000, 400),
	)

	e := testEngine(t)
	snap := e.Snapshot(context.Background(), input.Payload{
		SessionID:      "session-1",
		TranscriptPath: transcript,
		Model:          input.ModelInfo{ID: "claude-sonnet-4-5"},
	})

	require.Equal(t, "claude-sonnet-4-5", snap.ModelName)

	// Two priced entries plus the Task turn costed from its own tokens.
	require.NotNil(t, snap.Session.Cost)
	require.InDelta(t, 0.60045, *snap.Session.Cost, 1e-6)

	require.NotNil(t, snap.Session.Tokens)
	require.Equal(t, int64(1000+200+2000+400+2*400+70), *snap.Session.Tokens)

	require.NotNil(t, snap.Session.BurnRate, "a 10-minute paid span must yield a rate")
	require.Greater(t, *snap.Session.BurnRate, 0.0)

	require.Len(t, snap.Agents, 1)
	require.Equal(t, "toolu_01", snap.Agents[0].ID)
	require.Equal(t, model.AgentCompleted, snap.Agents[0].Status)

	require.Nil(t, snap.Quota, "no session key configured")
}

func TestSnapshotDisabledQuotaSegmentSkipsFetch(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"five_hour":{"utilization":10},"seven_day":{"utilization":20}}`))
	}))
	defer srv.Close()

	e := testEngine(t)
	e.Config.Quota.SessionKey = "sk-ant-sid01-test"
	e.Config.Quota.BaseURL = srv.URL
	e.Config.Segments.Quota = false

	snap := e.Snapshot(context.Background(), input.Payload{SessionID: "session-1"})
	require.Nil(t, snap.Quota)
	require.Zero(t, hits.Load(), "a disabled segment must not cost a request")
}

func TestSnapshotMissingTranscript(t *testing.T) {
	e := testEngine(t)
	e.Config.General.ClaudeDir = t.TempDir()
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	snap := e.Snapshot(context.Background(), input.Payload{
		SessionID:      "nope",
		TranscriptPath: "/does/not/exist.jsonl",
		Model:          input.ModelInfo{DisplayName: "Sonnet"},
	})

	require.Equal(t, "Sonnet", snap.ModelName)
	require.Nil(t, snap.Session.Cost)
	require.Nil(t, snap.Session.BurnRate)
	require.Empty(t, snap.Agents)
}

func TestSnapshotLocatorFallback(t *testing.T) {
	claudeDir := t.TempDir()
	projDir := filepath.Join(claudeDir, "projects", "-home-u-proj")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	line := assistantLine("2026-08-29T11:45:00Z", `"costUSD":0.10,`, 100, 10)
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "sess-9.jsonl"), []byte(line+"\n"), 0o600))

	e := testEngine(t)
	e.Config.General.ClaudeDir = claudeDir
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	snap := e.Snapshot(context.Background(), input.Payload{SessionID: "sess-9"})
	require.NotNil(t, snap.Session.Cost)
	require.InDelta(t, 0.10, *snap.Session.Cost, 1e-9)
}

func TestSnapshotOfficialFallback(t *testing.T) {
	transcript := writeTranscript(t, `{"type":"user","timestamp":"2026-08-29T11:00:00Z","message":{"content":"hi"}}`)

	official := 2.5
	e := testEngine(t)
	snap := e.Snapshot(context.Background(), input.Payload{
		SessionID:      "session-1",
		TranscriptPath: transcript,
		Cost:           input.CostInfo{TotalCostUSD: &official},
	})

	require.NotNil(t, snap.Session.Cost)
	require.Equal(t, 2.5, *snap.Session.Cost, "zero entries uses the host total verbatim")
	require.Nil(t, snap.Session.Tokens)
}

func TestRenderNeverEmpty(t *testing.T) {
	e := testEngine(t)
	line := e.Render(context.Background(), input.Payload{Model: input.ModelInfo{ID: "claude-opus-4-5"}}, 0)
	require.Contains(t, line, "Opus 4.5")
}

func TestBurnRatePersistsAcrossInvocations(t *testing.T) {
	transcript := writeTranscript(t,
		assistantLine("2026-08-29T11:40:00Z", `"costUSD":0.50,`, 1000, 100),
		assistantLine("2026-08-29T11:55:00Z", `"costUSD":0.50,`, 1000, 100),
	)

	e := testEngine(t)
	payload := input.Payload{SessionID: "session-1", TranscriptPath: transcript}

	first := e.Snapshot(context.Background(), payload)
	require.NotNil(t, first.Session.BurnRate)

	statePath := filepath.Join(e.CacheDir, "burnrate.json")
	_, err := os.Stat(statePath)
	require.NoError(t, err, "state file must be written after a non-nil estimate")

	second := e.Snapshot(context.Background(), payload)
	require.NotNil(t, second.Session.BurnRate)
}
