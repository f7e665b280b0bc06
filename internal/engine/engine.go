// Package engine orchestrates one statusline render: locate the
// transcript, aggregate usage, estimate the burn rate, replay agent
// activity, and attach quota data. Every stage is best-effort; a
// failure drops that segment's data instead of failing the render.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cclinedev/ccline/internal/agents"
	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/metrics"
	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/quota"
	"github.com/cclinedev/ccline/internal/render"
	"github.com/cclinedev/ccline/internal/source"
	"github.com/cclinedev/ccline/internal/store"
)

// Engine computes a render.Snapshot for one invocation.
type Engine struct {
	Config   config.Config
	CacheDir string
	Log      zerolog.Logger
	Now      func() time.Time
}

// New creates an engine using the default cache directory.
func New(cfg config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		Config:   cfg,
		CacheDir: config.CacheDir(),
		Log:      log,
		Now:      time.Now,
	}
}

// Render produces the final statusline for the payload. It never
// panics; an unexpected failure degrades to whatever was computed
// before it.
func (e *Engine) Render(ctx context.Context, p input.Payload, width int) (line string) {
	var snap render.Snapshot
	defer func() {
		if r := recover(); r != nil {
			e.Log.Error().Interface("panic", r).Msg("render recovered")
			line = render.Statusline(snap, e.Config.Segments, width)
		}
	}()

	snap = e.Snapshot(ctx, p)
	return render.Statusline(snap, e.Config.Segments, width)
}

// Snapshot runs the full pipeline for one payload.
func (e *Engine) Snapshot(ctx context.Context, p input.Payload) render.Snapshot {
	snap := render.Snapshot{ModelName: p.ModelName()}

	// State files live under the cache dir; creating it is best-effort.
	_ = os.MkdirAll(e.CacheDir, 0o755)

	path := e.transcriptPath(p)
	if path == "" {
		e.Log.Debug().Str("session", p.SessionID).Msg("no transcript found")
		snap.Quota = e.quota(ctx)
		return snap
	}

	official := metrics.Official{
		TotalCostUSD: p.Cost.TotalCostUSD,
		DurationMs:   p.Cost.TotalDurationMs,
	}

	entries, truncated := e.loadEntries(path)
	snap.Session = metrics.Summarize(entries, official, truncated)
	snap.Session.BurnRate = e.burnRate(p.SessionID, snap.Session.Cost, entries, official)
	snap.Agents = e.agents(path, p.SessionID, agents.DisplayLimit)
	snap.Quota = e.quota(ctx)

	return snap
}

// transcriptPath prefers the path the host supplied and falls back to
// scanning the Claude projects directory for the session id.
func (e *Engine) transcriptPath(p input.Payload) string {
	if p.TranscriptPath != "" {
		if _, err := os.Stat(p.TranscriptPath); err == nil {
			return p.TranscriptPath
		}
	}
	if p.SessionID == "" {
		return ""
	}
	return source.Locate(config.ResolveClaudeDir(e.Config), p.SessionID)
}

// loadEntries reads usage entries, switching to a bounded tail read for
// large transcripts. The truncated flag marks totals as estimates.
func (e *Engine) loadEntries(path string) ([]model.UsageEntry, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if fi.Size() > source.DefaultTailBytes {
		entries, truncated, err := source.TailEntries(path, source.DefaultTailBytes)
		if err != nil {
			e.Log.Debug().Err(err).Str("path", path).Msg("tail parse failed")
			return nil, false
		}
		return entries, truncated
	}

	entries, err := source.Entries(path)
	if err != nil {
		e.Log.Debug().Err(err).Str("path", path).Msg("parse failed")
		return nil, false
	}
	return entries, false
}

func (e *Engine) burnRate(sessionID string, cost *float64, entries []model.UsageEntry, official metrics.Official) *float64 {
	st := &metrics.FileStore{Path: filepath.Join(e.CacheDir, "burnrate.json")}
	est := metrics.NewEstimator(st)
	est.Now = e.Now
	return est.Estimate(sessionID, cost, entries, official)
}

// AgentList returns the full tracked registry for the payload's
// session, not just the statusline's display slice.
func (e *Engine) AgentList(p input.Payload) []model.AgentRecord {
	path := e.transcriptPath(p)
	if path == "" {
		return nil
	}
	return e.agents(path, p.SessionID, agents.RegistryCap)
}

func (e *Engine) agents(path, sessionID string, limit int) []model.AgentRecord {
	records, err := e.loadRecords(path)
	if err != nil {
		e.Log.Debug().Err(err).Msg("agent record parse failed")
		return nil
	}

	tracker := agents.NewTracker()
	tracker.Replay(agents.Classify(records), e.Now())
	snap := tracker.Snapshot(limit)
	if len(snap) == 0 {
		return nil
	}

	cache, err := store.Open(filepath.Join(e.CacheDir, "agents.db"))
	if err != nil {
		e.Log.Debug().Err(err).Msg("agent cache unavailable")
		agents.Enrich(snap, path, sessionID, nil)
		return snap
	}
	defer cache.Close()

	agents.Enrich(snap, path, sessionID, cache)
	return snap
}

func (e *Engine) loadRecords(path string) ([]source.RawRecord, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > source.DefaultTailBytes {
		return source.TailRecords(path, source.DefaultTailBytes)
	}
	return source.Records(path)
}

// quota returns cached or freshly fetched quota windows, or nil when no
// session key is configured or the fetch fails.
func (e *Engine) quota(ctx context.Context) *quota.Usage {
	// A disabled segment never renders, so don't spend a request on it.
	if !e.Config.Segments.Quota {
		return nil
	}
	client := quota.NewClient(config.SessionKey(e.Config))
	if client == nil {
		return nil
	}
	client.SetBaseURL(e.Config.Quota.BaseURL)

	cache := &quota.FileCache{Path: filepath.Join(e.CacheDir, "quota.json"), Now: e.Now}
	if u := cache.Get(); u != nil {
		return u
	}

	u, err := client.Fetch(ctx)
	if err != nil {
		e.Log.Debug().Err(err).Msg("quota fetch failed")
		return nil
	}
	cache.Put(u)
	return u
}
