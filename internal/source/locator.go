// Package source locates and parses Claude Code JSONL transcript files.
package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Locate finds the primary transcript for a session under the Claude data
// directory. Returns "" when no transcript exists; absence is not an error.
func Locate(claudeDir, sessionID string) string {
	if sessionID == "" {
		return ""
	}

	projectsDir := filepath.Join(claudeDir, "projects")
	dirs, err := os.ReadDir(projectsDir)
	if err != nil {
		return ""
	}

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(projectsDir, d.Name(), sessionID+".jsonl")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}

// LocateAgents discovers subagent transcripts next to a primary transcript.
// Layout: <project>/<sessionID>/subagents/agent-<id>.jsonl. A candidate is
// accepted only when its first line carries the matching session id; this
// guards against files misplaced by a crashed or concurrent host process.
// Any I/O error while probing a candidate skips that candidate only.
func LocateAgents(primaryPath, sessionID string) []string {
	if primaryPath == "" || sessionID == "" {
		return nil
	}

	dir := filepath.Join(filepath.Dir(primaryPath), sessionID, "subagents")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "agent-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		path := filepath.Join(dir, name)
		if firstLineSessionID(path) != sessionID {
			continue
		}
		paths = append(paths, path)
	}

	return paths
}

// firstLineSessionID reads the first line of a transcript and returns its
// embedded session id, or "" on any read or parse failure.
func firstLineSessionID(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	if !scanner.Scan() {
		return ""
	}

	var rec struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
		return ""
	}
	return rec.SessionID
}
