package quota

import (
	"encoding/json"
	"time"
)

type organization struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// usageResponse is the raw API response from the usage endpoint.
type usageResponse struct {
	FiveHour *rawWindow `json:"five_hour"`
	SevenDay *rawWindow `json:"seven_day"`
}

// rawWindow is a single rate-limit window from the API. Utilization arrives
// as int, float, or string depending on API version, so it stays raw here.
type rawWindow struct {
	Utilization json.RawMessage `json:"utilization"`
	ResetsAt    *string         `json:"resets_at"`
}

// Usage holds the normalized rate-limit windows.
type Usage struct {
	FiveHour  *Window   `json:"fiveHour,omitempty"`
	SevenDay  *Window   `json:"sevenDay,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Window is one rate-limit window, normalized for display.
type Window struct {
	Pct      float64   `json:"pct"` // 0.0-1.0
	ResetsAt time.Time `json:"resetsAt,omitzero"`
}
