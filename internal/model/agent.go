package model

import "time"

// AgentStatus is the two-state lifecycle of a background agent task.
type AgentStatus string

const (
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
)

// AgentRecord tracks one subtask launched via the Task tool.
// ID is the tool invocation id and is unique within one transcript replay.
type AgentRecord struct {
	ID          string
	Type        string
	Model       string
	Description string
	Status      AgentStatus
	StartTime   time.Time
	EndTime     time.Time // zero while running

	// BackgroundID links an async hand-off tool result to the out-of-band
	// completion signal that eventually arrives for the same logical task.
	BackgroundID string

	// Enrichment from the agent's own transcript, when available.
	Tokens *int64
	Cost   *float64
}

// Running reports whether the record has not yet seen a terminal signal.
func (r *AgentRecord) Running() bool {
	return r.Status == AgentRunning
}
