package agents

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/pricing"
	"github.com/cclinedev/ccline/internal/source"
	"github.com/cclinedev/ccline/internal/store"
)

const enrichWorkers = 4

// Enrich fills Tokens and Cost on records that have their own transcript,
// identified by BackgroundID. Candidate transcripts come from the locator's
// session-guarded discovery pass. Reads run on a bounded worker pool; a
// missing or unreadable transcript leaves the record's fields unset rather
// than failing the pass. Summaries are cached by (path, mtime, size) when a
// cache is supplied.
func Enrich(records []model.AgentRecord, primaryPath, sessionID string, cache *store.Cache) {
	available := make(map[string]string)
	for _, p := range source.LocateAgents(primaryPath, sessionID) {
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "agent-"), ".jsonl")
		available[id] = p
	}

	type job struct {
		idx  int
		path string
	}

	var jobs []job
	for i := range records {
		if records[i].BackgroundID == "" {
			continue
		}
		path := available[records[i].BackgroundID]
		if path == "" {
			continue
		}
		jobs = append(jobs, job{idx: i, path: path})
	}
	if len(jobs) == 0 {
		return
	}

	workers := enrichWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	work := make(chan job, len(jobs))
	for _, j := range jobs {
		work <- j
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range work {
				enrichOne(&records[j.idx], j.path, cache)
			}
		}()
	}
	wg.Wait()
}

func enrichOne(rec *model.AgentRecord, path string, cache *store.Cache) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mtimeNs, size := info.ModTime().UnixNano(), info.Size()

	if cache != nil {
		if u, ok := cache.GetAgentUsage(path, mtimeNs, size); ok {
			rec.Tokens = &u.Tokens
			rec.Cost = &u.Cost
			return
		}
	}

	entries, err := source.Entries(path)
	if err != nil || len(entries) == 0 {
		return
	}

	var breakdown model.TokenBreakdown
	for _, e := range entries {
		breakdown.Add(e.Tokens)
	}

	m := rec.Model
	if m == "" {
		m = pricing.DefaultModel
	}

	tokens := breakdown.Total()
	cost := pricing.Cost(m, breakdown)
	rec.Tokens = &tokens
	rec.Cost = &cost

	if cache != nil {
		_ = cache.PutAgentUsage(path, mtimeNs, size, store.AgentUsage{
			Tokens: tokens,
			Cost:   cost,
			Model:  m,
		})
	}
}
