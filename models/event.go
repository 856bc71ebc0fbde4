// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

// TrackedEvent is one analytics occurrence as recorded by a visitor's browser.
// Every client-supplied field is optional; an empty string means the client
// did not send it.
type TrackedEvent struct {
	EventID            string          `json:"event_id"`
	EventType          string          `json:"event_type"`
	SessionID          string          `json:"session_id,omitempty"`
	VisitorID          string          `json:"visitor_id,omitempty"`
	PagePath           string          `json:"page_path,omitempty"`
	ClientTimestampUTC string          `json:"client_timestamp_utc,omitempty"`
	ReceivedAt         time.Time       `json:"received_at"`
	Referrer           string          `json:"referrer,omitempty"`
	UserAgent          string          `json:"user_agent,omitempty"`
	IPAddress          string          `json:"ip_address,omitempty"`
	DurationMs         int64           `json:"duration_ms"`
	EventData          json.RawMessage `json:"event_data,omitempty"`
}

type TopPathResult struct {
	PagePath string `json:"page_path"`
	Count    uint64 `json:"count"`
}

type EventTypeCountByTime struct {
	Time      time.Time `json:"time"`
	EventType *string   `json:"event_type,omitempty"`
	Count     uint64    `json:"count"`
}
