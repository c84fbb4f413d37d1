package models

import "time"

// EntryType distinguishes completed-session records from free-standing notes.
type EntryType string

const (
	EntrySession EntryType = "session"
	EntryNote    EntryType = "note"
)

// JournalEntry is one line of the append-only journal file. Session entries
// carry the session ID they were completed under so they can be edited
// later; note entries get a fresh ID used only as an edit target.
type JournalEntry struct {
	Type        EntryType  `json:"type"`
	SessionID   string     `json:"sessionId"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     time.Time  `json:"end_time"`
	Duration    int        `json:"duration,omitempty"`
	SummaryText string     `json:"summary_text"`
}

// JournalBinding is the persisted capability that points at the journal
// file. Its presence governs whether the journal workflow is bound; a
// cached binding is revalidated before every use.
type JournalBinding struct {
	Path    string    `yaml:"path"`
	Mode    string    `yaml:"mode"`
	BoundAt time.Time `yaml:"bound_at"`
}

// Binding modes. Read-write is required for appends and edits; read
// suffices for listing.
const (
	ModeReadWrite = "readwrite"
	ModeRead      = "read"
)
