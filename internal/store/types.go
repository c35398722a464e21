package store

import (
	"time"

	"github.com/mhradil/jiratrack/internal/normalize"
)

// Trigger kinds recorded on run-history entries.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Source describes where a batch was synced from.
type Source struct {
	BaseURL  string   `json:"baseUrl"`
	Projects []string `json:"projects"`
}

// StoredData is one synced batch. It is replaced wholesale on every
// successful sync; Count always equals len(Issues).
type StoredData struct {
	Timestamp time.Time         `json:"timestamp"`
	Source    Source            `json:"source"`
	Issues    []normalize.Issue `json:"issues"`
	Count     int               `json:"count"`
}

// SyncHistoryEntry is one appended run-log record.
type SyncHistoryEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Trigger    string    `json:"trigger"`
	IssueCount int       `json:"issueCount"`
	DurationMS int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	Error      *string   `json:"error,omitempty"`
}

// MetaData is the rolling run log, newest first.
type MetaData struct {
	History []SyncHistoryEntry `json:"history"`
}

// PlanningDocument is the team/planning document, keyed by team id.
type PlanningDocument struct {
	UpdatedAt time.Time         `json:"updatedAt"`
	Entries   map[string]string `json:"entries"`
}
