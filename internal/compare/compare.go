// Package compare detects field-level changes between two normalized issue
// sets. Comparison is pure: the same inputs always produce the same entries,
// in issue order and fixed field order.
package compare

import (
	"strconv"
	"time"

	"github.com/mhradil/jiratrack/internal/normalize"
)

// Change kinds recorded in the changelog.
const (
	KindCreated     = "created"
	KindStatus      = "status"
	KindAssignee    = "assignee"
	KindPriority    = "priority"
	KindStoryPoints = "storyPoints"
	KindResolved    = "resolved"
)

// ChangelogEntry is one detected change on one issue.
type ChangelogEntry struct {
	IssueKey   string    `json:"issueKey"`
	Summary    string    `json:"summary"`
	Kind       string    `json:"kind"`
	OldValue   *string   `json:"oldValue"`
	NewValue   *string   `json:"newValue"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Changes compares the previous issue set against the current one. A current
// issue with no previous counterpart yields exactly one created entry;
// otherwise the tracked fields are compared in fixed order. Issues present
// only in the previous set are intentionally not reported.
func Changes(previous, current []normalize.Issue, detectedAt time.Time) []ChangelogEntry {
	previousByKey := make(map[string]normalize.Issue, len(previous))
	for _, issue := range previous {
		previousByKey[issue.Key] = issue
	}

	var entries []ChangelogEntry
	for _, issue := range current {
		prev, exists := previousByKey[issue.Key]
		if !exists {
			entries = append(entries, ChangelogEntry{
				IssueKey:   issue.Key,
				Summary:    issue.Summary,
				Kind:       KindCreated,
				DetectedAt: detectedAt,
			})
			continue
		}
		entries = append(entries, fieldChanges(prev, issue, detectedAt)...)
	}

	return entries
}

// fieldChanges compares the five tracked fields of one issue pair.
func fieldChanges(previous, current normalize.Issue, detectedAt time.Time) []ChangelogEntry {
	var changes []ChangelogEntry

	entry := func(kind string, old, new *string) {
		changes = append(changes, ChangelogEntry{
			IssueKey:   current.Key,
			Summary:    current.Summary,
			Kind:       kind,
			OldValue:   old,
			NewValue:   new,
			DetectedAt: detectedAt,
		})
	}

	if previous.Status != current.Status {
		entry(KindStatus, stringPtr(previous.Status), stringPtr(current.Status))
	}

	if !equalPtr(previous.Assignee, current.Assignee) {
		entry(KindAssignee, previous.Assignee, current.Assignee)
	}

	if !equalPtr(previous.Priority, current.Priority) {
		entry(KindPriority, previous.Priority, current.Priority)
	}

	if !equalPoints(previous.StoryPoints, current.StoryPoints) {
		entry(KindStoryPoints, formatPoints(previous.StoryPoints), formatPoints(current.StoryPoints))
	}

	// Only the transition into a resolution is reported; a change between two
	// resolutions on an already-resolved issue is not.
	if previous.Resolution == nil && current.Resolution != nil {
		entry(KindResolved, nil, current.Resolution)
	}

	return changes
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// equalPoints compares story points strictly: 0 and nil are different values.
func equalPoints(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// formatPoints stringifies story points for entry output only.
func formatPoints(points *float64) *string {
	if points == nil {
		return nil
	}
	formatted := strconv.FormatFloat(*points, 'f', -1, 64)
	return &formatted
}

func stringPtr(s string) *string {
	return &s
}
