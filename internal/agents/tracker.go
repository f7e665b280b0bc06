package agents

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/cclinedev/ccline/internal/model"
)

const (
	// RegistryCap is the soft bound on tracked agents. The registry may
	// exceed it when no record can be safely evicted.
	RegistryCap = 50
	// DisplayLimit caps how many records a snapshot returns.
	DisplayLimit = 10
	// StaleAfter is how long a running agent may go without a terminal
	// signal before it is synthetically completed.
	StaleAfter = 30 * time.Minute
)

// Tracker replays classified events into a bounded agent registry.
// One Tracker serves one replay pass; it is not persisted.
type Tracker struct {
	registry     map[string]*model.AgentRecord
	byBackground map[string]string // backgroundID -> invocation id
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		registry:     make(map[string]*model.AgentRecord),
		byBackground: make(map[string]string),
	}
}

// Replay applies events in order and then auto-completes stale runners
// against now.
func (t *Tracker) Replay(events []Event, now time.Time) {
	for _, ev := range events {
		t.apply(ev)
	}
	t.completeStale(now)
}

// apply advances the per-agent state machine by one event:
// start -> foreground-complete | async-handoff -> terminal-complete.
func (t *Tracker) apply(ev Event) {
	switch e := ev.(type) {
	case Launch:
		t.insert(&model.AgentRecord{
			ID:          e.ID,
			Type:        e.Type,
			Model:       e.Model,
			Description: e.Description,
			Status:      model.AgentRunning,
			StartTime:   e.Time,
		}, e.Time)

	case ForegroundResult:
		if rec, ok := t.registry[e.ID]; ok && rec.Running() {
			rec.Status = model.AgentCompleted
			rec.EndTime = e.Time
		}

	case AsyncHandoff:
		if rec, ok := t.registry[e.ID]; ok {
			rec.BackgroundID = e.BackgroundID
			t.byBackground[e.BackgroundID] = e.ID
		}

	case TaskTerminal:
		id, ok := t.byBackground[e.BackgroundID]
		if !ok {
			return
		}
		if rec, ok := t.registry[id]; ok && rec.Running() {
			rec.Status = model.AgentCompleted
			rec.EndTime = e.Time
		}
	}
}

// insert adds a record, evicting one candidate first when the registry is
// at capacity. Eviction priority: oldest completed, then oldest running
// that has already gone stale. A fresh running record is never evicted;
// if nothing qualifies, the registry grows past the cap.
func (t *Tracker) insert(rec *model.AgentRecord, now time.Time) {
	if len(t.registry) >= RegistryCap {
		if victim := t.evictionCandidate(now); victim != "" {
			t.remove(victim)
		}
	}
	t.registry[rec.ID] = rec
}

func (t *Tracker) evictionCandidate(now time.Time) string {
	oldest := func(status model.AgentStatus, staleOnly bool) string {
		var id string
		var at time.Time
		for _, rec := range t.registry {
			if rec.Status != status {
				continue
			}
			if staleOnly && now.Sub(rec.StartTime) <= StaleAfter {
				continue
			}
			if id == "" || rec.StartTime.Before(at) {
				id = rec.ID
				at = rec.StartTime
			}
		}
		return id
	}

	if id := oldest(model.AgentCompleted, false); id != "" {
		return id
	}
	return oldest(model.AgentRunning, true)
}

func (t *Tracker) remove(id string) {
	if rec, ok := t.registry[id]; ok && rec.BackgroundID != "" {
		delete(t.byBackground, rec.BackgroundID)
	}
	delete(t.registry, id)
}

// completeStale synthetically finishes runners whose start is older than
// the staleness threshold, preventing indefinitely stuck entries from a
// host process that vanished without a terminal signal.
func (t *Tracker) completeStale(now time.Time) {
	for _, rec := range t.registry {
		if rec.Running() && now.Sub(rec.StartTime) > StaleAfter {
			rec.Status = model.AgentCompleted
			rec.EndTime = rec.StartTime.Add(StaleAfter)
		}
	}
}

// Size returns the current registry size.
func (t *Tracker) Size() int {
	return len(t.registry)
}

// Snapshot assembles the display view: every running record first (newest
// launch first), then the most recently started completed records, capped
// at limit.
func (t *Tracker) Snapshot(limit int) []model.AgentRecord {
	if limit <= 0 {
		limit = DisplayLimit
	}

	all := lo.MapToSlice(t.registry, func(_ string, rec *model.AgentRecord) model.AgentRecord {
		return *rec
	})
	running := lo.Filter(all, func(r model.AgentRecord, _ int) bool { return r.Status == model.AgentRunning })
	completed := lo.Filter(all, func(r model.AgentRecord, _ int) bool { return r.Status == model.AgentCompleted })

	byStartDesc := func(recs []model.AgentRecord) {
		sort.Slice(recs, func(i, j int) bool {
			if !recs[i].StartTime.Equal(recs[j].StartTime) {
				return recs[i].StartTime.After(recs[j].StartTime)
			}
			return recs[i].ID < recs[j].ID
		})
	}
	byStartDesc(running)
	byStartDesc(completed)

	out := append(running, completed...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
