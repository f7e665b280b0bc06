package config

import (
	"os"
	"path/filepath"
)

// ResolveClaudeDir returns the Claude data directory to scan for
// transcripts. Precedence: CLAUDE_CONFIG_DIR env var, the config file
// override, then ~/.claude.
func ResolveClaudeDir(cfg Config) string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if cfg.General.ClaudeDir != "" {
		return cfg.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}
