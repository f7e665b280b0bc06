package quota

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// CacheTTL bounds how long a fetched usage response is reused before a
// fresh network call is made.
const CacheTTL = 30 * time.Second

// FileCache stores the last usage response as a small JSON document in the
// cache directory, shared across invocations with last-write-wins
// semantics. Expired or corrupt entries are treated as absent.
type FileCache struct {
	Path string
	Now  func() time.Time // test hook; defaults to time.Now
}

type cacheEnvelope struct {
	StoredAtMs int64  `json:"storedAtMs"`
	Usage      *Usage `json:"usage"`
}

// Get returns the cached usage, or nil when the entry is missing, expired,
// or fails validation.
func (c *FileCache) Get() *Usage {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil
	}

	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Usage == nil || env.StoredAtMs <= 0 {
		return nil
	}
	if c.now().Sub(time.UnixMilli(env.StoredAtMs)) > CacheTTL {
		return nil
	}
	for _, w := range []*Window{env.Usage.FiveHour, env.Usage.SevenDay} {
		if w != nil && (w.Pct < 0 || w.Pct > 2) {
			return nil
		}
	}
	return env.Usage
}

// Put stores a usage response best-effort; failures are swallowed since
// the cache is advisory.
func (c *FileCache) Put(u *Usage) {
	if u == nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return
	}
	data, err := json.Marshal(cacheEnvelope{
		StoredAtMs: c.now().UnixMilli(),
		Usage:      u,
	})
	if err != nil {
		return
	}
	_ = os.WriteFile(c.Path, data, 0o600)
}

func (c *FileCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
