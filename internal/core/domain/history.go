package domain

import "time"

// DefaultHistoryCap is the retention cap applied when no override is configured:
// at most this many history records survive per user after cleanup.
const DefaultHistoryCap = 20

// HistoryRecord is one research or generation run stored for a user. The
// payload is opaque to this core; cleanup only cares about ownership and age.
type HistoryRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Kind      string         `json:"kind,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
