package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/cclinedev/ccline/internal/model"
)

// DefaultTailBytes bounds how much of a large transcript the tail-reading
// mode inspects. Callers needing full-history metrics must not use tail mode.
const DefaultTailBytes = 512 * 1024

// Entries parses a transcript into usage entries. Lines that fail to parse
// or lack a usage object are dropped; a single malformed line never aborts
// ingestion of the remaining file.
func Entries(path string) ([]model.UsageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return readEntries(f), nil
}

// TailEntries reads only the final maxBytes of the transcript, trading
// completeness for bounded time on very large logs. The resulting totals
// undercount the session; callers should surface that as estimated output.
func TailEntries(path string, maxBytes int64) ([]model.UsageEntry, bool, error) {
	chunk, truncated, err := tailChunk(path, maxBytes)
	if err != nil {
		return nil, false, err
	}
	return readEntries(bytes.NewReader(chunk)), truncated, nil
}

// Records parses a transcript into raw structured records for agent
// tracking. Malformed lines are skipped.
func Records(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return readRecords(f), nil
}

// TailRecords is the bounded-read variant of Records.
func TailRecords(path string, maxBytes int64) ([]RawRecord, error) {
	chunk, _, err := tailChunk(path, maxBytes)
	if err != nil {
		return nil, err
	}
	return readRecords(bytes.NewReader(chunk)), nil
}

func readEntries(r io.Reader) []model.UsageEntry {
	var entries []model.UsageEntry

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if topLevelType(line) != "assistant" {
			continue
		}

		var rec RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Message == nil || rec.Message.Usage == nil {
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			continue
		}

		u := rec.Message.Usage
		entries = append(entries, model.UsageEntry{
			Timestamp: ts,
			Tokens: model.TokenBreakdown{
				Input:         u.InputTokens,
				Output:        u.OutputTokens,
				CacheCreation: u.CacheWriteTokens(),
				CacheRead:     u.CacheReadInputTokens,
			},
			CostUSD:     rec.CostUSD,
			Model:       rec.Message.Model,
			IsSidechain: rec.IsSidechain,
		})
	}

	return entries
}

func readRecords(r io.Reader) []RawRecord {
	var records []RawRecord

	scanner := newLineScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		switch topLevelType(line) {
		case "assistant", "user", "system":
		default:
			continue
		}

		var rec RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)
	return scanner
}

// tailChunk returns up to the last maxBytes of the file. When the read
// starts mid-file, a possibly-truncated first line is discarded unless it
// starts with a record-opening byte and is therefore verifiably whole.
func tailChunk(path string, maxBytes int64) ([]byte, bool, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultTailBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	if info.Size() <= maxBytes {
		data, err := io.ReadAll(f)
		return data, false, err
	}

	if _, err := f.Seek(info.Size()-maxBytes, io.SeekStart); err != nil {
		return nil, false, err
	}
	chunk, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}

	if len(chunk) > 0 && chunk[0] != '{' {
		if nl := bytes.IndexByte(chunk, '\n'); nl >= 0 {
			chunk = chunk[nl+1:]
		} else {
			chunk = nil
		}
	}

	return chunk, true, nil
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// topLevelType finds the top-level "type" field of a JSONL line without a
// full JSON parse. Tracks brace depth and string boundaries so nested
// "type" keys are ignored; early-exits once found.
func topLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := typeValueAt(line, i+len(typeKey))
				if isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// typeValueAt checks whether pos follows a JSON key (expects : then value)
// and returns the string value. isKey=false means "type" appeared as a
// value, not a key, and the caller should continue scanning.
func typeValueAt(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true // key with non-string value
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 24 {
		return "", true
	}
	return string(line[i : i+end]), true
}

// skipJSONString advances past a JSON string starting at the opening quote.
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}
