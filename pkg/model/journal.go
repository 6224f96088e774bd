package model

import "time"

// HashValue is a SHA-256 hash stored as a hex string.
type HashValue string

// JournalEventType identifies the type of coordination event.
type JournalEventType string

const (
	EventTypeClaim      JournalEventType = "claim"
	EventTypeForceClaim JournalEventType = "force_claim"
	EventTypeRenew      JournalEventType = "renew"
	EventTypeRelease    JournalEventType = "release"
	EventTypeSupersede  JournalEventType = "supersede"
	EventTypeFinalize   JournalEventType = "session_finalize"
)

// JournalRecord is a single line in the coordination journal (JSONL format).
// Records are hash-chained so a rewritten history is detectable.
type JournalRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	EventType    JournalEventType `json:"event_type"`
	AgentID      string           `json:"agent_id,omitempty"`
	SessionID    string           `json:"session_id,omitempty"`
	FencingToken int64            `json:"fencing_token,omitempty"`
	Details      map[string]any   `json:"details,omitempty"`
	PrevHash     HashValue        `json:"prev_hash"`
	RecordHash   HashValue        `json:"record_hash"`
}
