// Package agents reconstructs the lifecycle of background subtasks by
// replaying a session transcript's tool-event log.
package agents

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/cclinedev/ccline/internal/source"
)

// Event is one classified tool-activity record. The concrete types form a
// closed set produced by Classify; the tracker never sniffs raw shapes.
type Event interface {
	When() time.Time
}

// Launch is a Task tool invocation starting a subtask.
type Launch struct {
	ID          string
	Type        string
	Model       string
	Description string
	Time        time.Time
}

// ForegroundResult is a tool result completing its invocation in-line.
type ForegroundResult struct {
	ID   string
	Time time.Time
}

// AsyncHandoff is a tool result announcing that the task keeps running in
// the background under a separate identifier.
type AsyncHandoff struct {
	ID           string
	BackgroundID string
	Time         time.Time
}

// TaskTerminal is an out-of-band record carrying a terminal status for a
// background task.
type TaskTerminal struct {
	BackgroundID string
	Status       string
	Time         time.Time
}

// When implements Event.
func (e Launch) When() time.Time           { return e.Time }
func (e ForegroundResult) When() time.Time { return e.Time }
func (e AsyncHandoff) When() time.Time     { return e.Time }
func (e TaskTerminal) When() time.Time     { return e.Time }

// backgroundIDPattern extracts a background task identifier from free-form
// tool-result text. The hand-off payload has no structured schema, so this
// stays deliberately permissive; tightening it would silently drop
// correlations the host expresses loosely.
var backgroundIDPattern = regexp.MustCompile(
	`(?i)(?:background(?:[_ -]?task)?[_ -]?id|task[_ -]?id|agent[_ -]?id)\s*[:=]?\s*["']?([A-Za-z0-9][A-Za-z0-9_-]{2,})`)

// asyncMarkerPattern flags result text that indicates an asynchronous
// hand-off rather than an in-line completion.
var asyncMarkerPattern = regexp.MustCompile(`(?i)\b(?:running in(?: the)? background|background task|async)\b`)

var terminalStatuses = map[string]struct{}{
	"completed": {}, "failed": {}, "error": {}, "cancelled": {},
}

func isTerminalStatus(s string) bool {
	_, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Classify turns raw transcript records into tracker events. Records that
// fail structural parsing, and shapes the tracker has no use for, yield no
// event; replay always continues.
func Classify(records []source.RawRecord) []Event {
	var events []Event
	for _, rec := range records {
		// Sidechain records belong to a subtask's own transcript thread;
		// their tool events never describe top-level agents.
		if rec.IsSidechain {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			continue
		}

		switch rec.Type {
		case "assistant":
			events = append(events, classifyAssistant(rec, ts)...)
		case "user":
			events = append(events, classifyUser(rec, ts)...)
		case "system":
			if ev, ok := classifySystem(rec, ts); ok {
				events = append(events, ev)
			}
		}
	}
	return events
}

func classifyAssistant(rec source.RawRecord, ts time.Time) []Event {
	if rec.Message == nil {
		return nil
	}

	var events []Event
	for _, block := range rec.Message.Content {
		if block.Type != "tool_use" || block.Name != "Task" || block.ID == "" {
			continue
		}

		var input source.TaskInput
		if len(block.Input) > 0 {
			_ = json.Unmarshal(block.Input, &input)
		}

		events = append(events, Launch{
			ID:          block.ID,
			Type:        input.SubagentType,
			Model:       input.Model,
			Description: input.Description,
			Time:        ts,
		})
	}
	return events
}

func classifyUser(rec source.RawRecord, ts time.Time) []Event {
	var events []Event

	// Dedicated task-output shape: a structured toolUseResult field.
	if ev, ok := terminalFromTaskData(decodeTaskData(rec.ToolUseResult), ts); ok {
		events = append(events, ev)
	}

	if rec.Message == nil {
		return events
	}
	for _, block := range rec.Message.Content {
		if block.Type != "tool_result" || block.ToolUseID == "" {
			continue
		}

		text := resultText(block.Content)
		if asyncMarkerPattern.MatchString(text) {
			// The task moved to the background, so this result does not
			// complete it. Without an extractable id no correlation is
			// possible either; the agent stays running until a terminal
			// notification or the staleness pass catches it.
			if m := backgroundIDPattern.FindStringSubmatch(text); m != nil {
				events = append(events, AsyncHandoff{
					ID:           block.ToolUseID,
					BackgroundID: m[1],
					Time:         ts,
				})
			}
			continue
		}

		events = append(events, ForegroundResult{ID: block.ToolUseID, Time: ts})
	}
	return events
}

// classifySystem handles out-of-band task notifications, which arrive in
// one of two shapes: a structured data field, or free-form content text.
func classifySystem(rec source.RawRecord, ts time.Time) (Event, bool) {
	if rec.Data != nil {
		return terminalFromTaskData(rec.Data, ts)
	}

	var text string
	if len(rec.Content) > 0 {
		_ = json.Unmarshal(rec.Content, &text)
	}
	if text == "" {
		return nil, false
	}

	m := backgroundIDPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	for status := range terminalStatuses {
		if strings.Contains(strings.ToLower(text), status) {
			return TaskTerminal{BackgroundID: m[1], Status: status, Time: ts}, true
		}
	}
	return nil, false
}

func terminalFromTaskData(data *source.RawTaskData, ts time.Time) (Event, bool) {
	if data == nil || data.TaskID == "" || !isTerminalStatus(data.Status) {
		return nil, false
	}
	return TaskTerminal{
		BackgroundID: data.TaskID,
		Status:       strings.ToLower(strings.TrimSpace(data.Status)),
		Time:         ts,
	}, true
}

func decodeTaskData(raw json.RawMessage) *source.RawTaskData {
	if len(raw) == 0 {
		return nil
	}
	var data source.RawTaskData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return &data
}

// resultText flattens a tool_result content value, which is either a bare
// string or an array of text blocks.
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []source.RawContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
