package source

import (
	"os"
	"path/filepath"
	"testing"
)

const sessionID = "11111111-2222-3333-4444-555555555555"

// layoutSession builds <dir>/projects/<proj>/<session>.jsonl plus a
// subagents directory, returning the primary transcript path.
func layoutSession(t *testing.T) (claudeDir, primary string) {
	t.Helper()
	claudeDir = t.TempDir()
	projDir := filepath.Join(claudeDir, "projects", "-home-dev-projects-widget")
	subDir := filepath.Join(projDir, sessionID, "subagents")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	primary = filepath.Join(projDir, sessionID+".jsonl")
	writeFile(t, primary, `{"type":"user","sessionId":"`+sessionID+`"}`+"\n")
	return claudeDir, primary
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLocate(t *testing.T) {
	claudeDir, primary := layoutSession(t)

	if got := Locate(claudeDir, sessionID); got != primary {
		t.Errorf("Locate = %q, want %q", got, primary)
	}
	if got := Locate(claudeDir, "no-such-session"); got != "" {
		t.Errorf("Locate(missing) = %q, want empty", got)
	}
	if got := Locate(filepath.Join(claudeDir, "nonexistent"), sessionID); got != "" {
		t.Errorf("Locate(bad root) = %q, want empty", got)
	}
}

func TestLocateAgents(t *testing.T) {
	_, primary := layoutSession(t)
	subDir := filepath.Join(filepath.Dir(primary), sessionID, "subagents")

	// Matching session id in first line: discovered.
	writeFile(t, filepath.Join(subDir, "agent-a1b2c3.jsonl"),
		`{"type":"user","sessionId":"`+sessionID+`"}`+"\n")
	// Mismatched session id: excluded.
	writeFile(t, filepath.Join(subDir, "agent-wrong.jsonl"),
		`{"type":"user","sessionId":"other-session"}`+"\n")
	// Wrong prefix and wrong extension: excluded.
	writeFile(t, filepath.Join(subDir, "task-x.jsonl"), `{"sessionId":"`+sessionID+`"}`+"\n")
	writeFile(t, filepath.Join(subDir, "agent-nope.txt"), `{"sessionId":"`+sessionID+`"}`+"\n")
	// Unparseable first line: excluded.
	writeFile(t, filepath.Join(subDir, "agent-garbled.jsonl"), "not json\n")

	got := LocateAgents(primary, sessionID)
	if len(got) != 1 {
		t.Fatalf("LocateAgents = %v, want exactly one match", got)
	}
	if filepath.Base(got[0]) != "agent-a1b2c3.jsonl" {
		t.Errorf("matched %q, want agent-a1b2c3.jsonl", got[0])
	}
}

func TestLocateAgents_NoSubagentsDir(t *testing.T) {
	claudeDir := t.TempDir()
	primary := filepath.Join(claudeDir, "projects", "p", sessionID+".jsonl")
	if got := LocateAgents(primary, sessionID); got != nil {
		t.Errorf("LocateAgents = %v, want nil", got)
	}
}
