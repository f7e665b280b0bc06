// Package input decodes the JSON payload the assistant host writes to
// stdin on every statusline invocation.
package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrEmpty is returned when stdin carried no payload at all.
var ErrEmpty = errors.New("input: empty payload")

// Payload is the JSON structure received on standard input.
type Payload struct {
	SessionID      string        `json:"session_id"`
	TranscriptPath string        `json:"transcript_path"`
	Model          ModelInfo     `json:"model"`
	Workspace      WorkspaceInfo `json:"workspace"`
	Cost           CostInfo      `json:"cost"`
}

// ModelInfo identifies the active model.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// WorkspaceInfo contains workspace paths.
type WorkspaceInfo struct {
	ProjectDir string `json:"project_dir"`
	CurrentDir string `json:"current_dir"`
}

// CostInfo carries the host's own running totals for the session.
// Both fields are optional; a missing field stays nil.
type CostInfo struct {
	TotalCostUSD    *float64 `json:"total_cost_usd"`
	TotalDurationMs *int64   `json:"total_duration_ms"`
}

// Read decodes a payload from r. Missing fields are tolerated; only a
// completely empty or syntactically invalid document is an error.
func Read(r io.Reader) (Payload, error) {
	var p Payload

	data, err := io.ReadAll(r)
	if err != nil {
		return p, fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return p, ErrEmpty
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing input: %w", err)
	}
	return p, nil
}

// ModelName returns the best available model identifier from the
// payload, preferring the stable id over the display name.
func (p Payload) ModelName() string {
	if p.Model.ID != "" {
		return p.Model.ID
	}
	return p.Model.DisplayName
}
