// Package quota fetches realtime rate-limit utilization from the claude.ai
// web API. The data is optional: any failure degrades to "unavailable" for
// the current render cycle, never a retry and never a crash.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	baseURL        = "https://claude.ai/api"
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	keyPrefix      = "sk-ant-sid"
)

var (
	// ErrUnauthorized indicates the session key is expired or invalid.
	ErrUnauthorized = errors.New("quota: unauthorized (session key expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("quota: rate limited")
)

// Client fetches usage windows from the claude.ai web API.
type Client struct {
	sessionKey string
	http       *http.Client
	baseURL    string
}

// NewClient creates a client for the given session key.
// Returns nil if the key is empty or has the wrong prefix.
func NewClient(sessionKey string) *Client {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" || !strings.HasPrefix(sessionKey, keyPrefix) {
		return nil
	}
	return &Client{
		sessionKey: sessionKey,
		http:       &http.Client{},
		baseURL:    baseURL,
	}
}

// SetBaseURL overrides the API base URL. Used for self-hosted gateways
// and test servers; the empty string is ignored.
func (c *Client) SetBaseURL(url string) {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// Fetch returns the current usage windows for the session's first
// organization. A single failed request yields an error; callers treat
// that as "no quota data this cycle".
func (c *Client) Fetch(ctx context.Context) (*Usage, error) {
	body, err := c.get(ctx, "/organizations")
	if err != nil {
		return nil, err
	}

	var orgs []organization
	if err := json.Unmarshal(body, &orgs); err != nil {
		return nil, fmt.Errorf("quota: parsing organizations: %w", err)
	}
	if len(orgs) == 0 {
		return nil, errors.New("quota: no organizations found")
	}

	body, err = c.get(ctx, fmt.Sprintf("/organizations/%s/usage", orgs[0].UUID))
	if err != nil {
		return nil, err
	}

	var raw usageResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("quota: parsing usage: %w", err)
	}

	return &Usage{
		FiveHour:  parseWindow(raw.FiveHour),
		SevenDay:  parseWindow(raw.SevenDay),
		FetchedAt: time.Now(),
	}, nil
}

// get performs an authenticated GET request with a hard timeout.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("quota: creating request: %w", err)
	}

	req.Header.Set("Cookie", "sessionKey="+c.sessionKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/cclinedev/ccline/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quota: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("quota: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("quota: reading response: %w", err)
	}
	return body, nil
}

// parseWindow converts a raw usage window into a normalized one.
// Returns nil if the input is nil or unparseable.
func parseWindow(w *rawWindow) *Window {
	if w == nil {
		return nil
	}

	pct, ok := parseUtilization(w.Utilization)
	if !ok {
		return nil
	}

	out := &Window{Pct: pct}
	if w.ResetsAt != nil {
		if t, err := time.Parse(time.RFC3339, *w.ResetsAt); err == nil {
			out.ResetsAt = t
		}
	}
	return out
}

// parseUtilization handles the polymorphic utilization field.
// Handles int (75), float (0.75 or 75.0), and string ("75%" or "0.75").
// Returns value normalized to 0.0-1.0 range.
func parseUtilization(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return normalizeUtilization(f), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return normalizeUtilization(v), true
		}
	}

	return 0, false
}

// normalizeUtilization converts a value to the 0.0-1.0 range.
// Values > 1.0 are assumed to be percentages on a 0-100 scale.
func normalizeUtilization(v float64) float64 {
	if v > 1.0 {
		return v / 100.0
	}
	return v
}
