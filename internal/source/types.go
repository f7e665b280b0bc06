package source

import "encoding/json"

// RawRecord represents a single line in a Claude Code JSONL transcript.
// Only the fields the engine consumes are declared; everything else is
// ignored by the decoder.
type RawRecord struct {
	Type        string      `json:"type"`
	Subtype     string      `json:"subtype,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`
	SessionID   string      `json:"sessionId,omitempty"`
	IsSidechain bool        `json:"isSidechain,omitempty"`
	CostUSD     *float64    `json:"costUSD,omitempty"`
	Message     *RawMessage `json:"message,omitempty"`

	// ToolUseResult carries structured task output on user records.
	// Shape varies by host version, so it stays raw here.
	ToolUseResult json.RawMessage `json:"toolUseResult,omitempty"`

	// Content carries free-form text on system notification records.
	Content json.RawMessage `json:"content,omitempty"`

	// Data is the second notification shape observed in the wild.
	Data *RawTaskData `json:"data,omitempty"`
}

// RawMessage is the assistant/user message envelope.
type RawMessage struct {
	ID      string            `json:"id,omitempty"`
	Role    string            `json:"role,omitempty"`
	Model   string            `json:"model,omitempty"`
	Usage   *RawUsage         `json:"usage,omitempty"`
	Content []RawContentBlock `json:"content,omitempty"`
}

// RawContentBlock is one element of a message content array. Type selects
// which fields are populated ("tool_use", "tool_result", "text").
type RawContentBlock struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`          // tool_use
	Name      string          `json:"name,omitempty"`        // tool_use
	Input     json.RawMessage `json:"input,omitempty"`       // tool_use
	ToolUseID string          `json:"tool_use_id,omitempty"` // tool_result
	Content   json.RawMessage `json:"content,omitempty"`     // tool_result
	Text      string          `json:"text,omitempty"`
}

// RawUsage holds token counts from the API response.
type RawUsage struct {
	InputTokens              int64          `json:"input_tokens"`
	OutputTokens             int64          `json:"output_tokens"`
	CacheCreationInputTokens int64          `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64          `json:"cache_read_input_tokens"`
	CacheCreation            *CacheCreation `json:"cache_creation,omitempty"`
}

// CacheCreation breaks cache write tokens down by TTL bucket.
type CacheCreation struct {
	Ephemeral5mInputTokens int64 `json:"ephemeral_5m_input_tokens"`
	Ephemeral1hInputTokens int64 `json:"ephemeral_1h_input_tokens"`
}

// CacheWriteTokens returns the combined cache write count, preferring the
// TTL-bucketed breakdown when present.
func (u *RawUsage) CacheWriteTokens() int64 {
	if u.CacheCreation != nil {
		return u.CacheCreation.Ephemeral5mInputTokens + u.CacheCreation.Ephemeral1hInputTokens
	}
	return u.CacheCreationInputTokens
}

// RawTaskData holds task id and status from notification records.
type RawTaskData struct {
	TaskID string `json:"taskId,omitempty"`
	Status string `json:"status,omitempty"`
}

// TaskInput is the decoded input of a Task tool invocation.
type TaskInput struct {
	SubagentType    string `json:"subagent_type,omitempty"`
	Model           string `json:"model,omitempty"`
	Description     string `json:"description,omitempty"`
	RunInBackground bool   `json:"run_in_background,omitempty"`
}
