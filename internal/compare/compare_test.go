package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhradil/jiratrack/internal/normalize"
)

var detectedAt = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func issue(key string, mutate ...func(*normalize.Issue)) normalize.Issue {
	i := normalize.Issue{
		Key:     key,
		Summary: "Summary of " + key,
		Status:  "To Do",
	}
	for _, m := range mutate {
		m(&i)
	}
	return i
}

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func TestDiffAgainstSelfIsEmpty(t *testing.T) {
	issues := []normalize.Issue{
		issue("PROJ-1"),
		issue("PROJ-2", func(i *normalize.Issue) {
			i.Assignee = strPtr("Jane Doe")
			i.StoryPoints = f64Ptr(3)
			i.Resolution = strPtr("Done")
		}),
	}

	assert.Empty(t, Changes(issues, issues, detectedAt))
}

func TestNewIssuesYieldCreatedEntries(t *testing.T) {
	current := []normalize.Issue{issue("PROJ-1"), issue("PROJ-2"), issue("PROJ-3")}

	entries := Changes(nil, current, detectedAt)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, current[i].Key, entry.IssueKey)
		assert.Equal(t, current[i].Summary, entry.Summary)
		assert.Equal(t, KindCreated, entry.Kind)
		assert.Nil(t, entry.OldValue)
		assert.Nil(t, entry.NewValue)
		assert.Equal(t, detectedAt, entry.DetectedAt)
	}
}

func TestSingleFieldChanges(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*normalize.Issue)
		kind     string
		oldValue *string
		newValue *string
	}{
		{
			name:     "status",
			mutate:   func(i *normalize.Issue) { i.Status = "In Progress" },
			kind:     KindStatus,
			oldValue: strPtr("To Do"),
			newValue: strPtr("In Progress"),
		},
		{
			name:     "assignee set",
			mutate:   func(i *normalize.Issue) { i.Assignee = strPtr("Jane Doe") },
			kind:     KindAssignee,
			oldValue: nil,
			newValue: strPtr("Jane Doe"),
		},
		{
			name:     "priority",
			mutate:   func(i *normalize.Issue) { i.Priority = strPtr("High") },
			kind:     KindPriority,
			oldValue: nil,
			newValue: strPtr("High"),
		},
		{
			name:     "story points from null",
			mutate:   func(i *normalize.Issue) { i.StoryPoints = f64Ptr(5) },
			kind:     KindStoryPoints,
			oldValue: nil,
			newValue: strPtr("5"),
		},
		{
			name:     "resolution set",
			mutate:   func(i *normalize.Issue) { i.Resolution = strPtr("Done") },
			kind:     KindResolved,
			oldValue: nil,
			newValue: strPtr("Done"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			previous := []normalize.Issue{issue("PROJ-1")}
			current := []normalize.Issue{issue("PROJ-1", tc.mutate)}

			entries := Changes(previous, current, detectedAt)
			require.Len(t, entries, 1)
			assert.Equal(t, tc.kind, entries[0].Kind)
			assert.Equal(t, tc.oldValue, entries[0].OldValue)
			assert.Equal(t, tc.newValue, entries[0].NewValue)
		})
	}
}

func TestMultipleFieldChangesKeepFixedOrder(t *testing.T) {
	previous := []normalize.Issue{issue("PROJ-1", func(i *normalize.Issue) {
		i.Assignee = strPtr("Jane Doe")
		i.StoryPoints = f64Ptr(3)
	})}
	current := []normalize.Issue{issue("PROJ-1", func(i *normalize.Issue) {
		i.Status = "Done"
		i.Assignee = strPtr("John Roe")
		i.Priority = strPtr("Low")
		i.StoryPoints = f64Ptr(8)
		i.Resolution = strPtr("Fixed")
	})}

	entries := Changes(previous, current, detectedAt)
	require.Len(t, entries, 5)

	kinds := make([]string, len(entries))
	for i, entry := range entries {
		kinds[i] = entry.Kind
	}
	assert.Equal(t, []string{KindStatus, KindAssignee, KindPriority, KindStoryPoints, KindResolved}, kinds)
}

func TestStoryPointsZeroVersusNull(t *testing.T) {
	previous := []normalize.Issue{issue("PROJ-1")}
	current := []normalize.Issue{issue("PROJ-1", func(i *normalize.Issue) {
		i.StoryPoints = f64Ptr(0)
	})}

	entries := Changes(previous, current, detectedAt)
	require.Len(t, entries, 1, "null -> 0 is a change")
	assert.Equal(t, KindStoryPoints, entries[0].Kind)
	assert.Nil(t, entries[0].OldValue)
	require.NotNil(t, entries[0].NewValue)
	assert.Equal(t, "0", *entries[0].NewValue, "0 is stringified as 0, never as null")
}

func TestResolutionChangeBetweenValuesIsIgnored(t *testing.T) {
	previous := []normalize.Issue{issue("PROJ-1", func(i *normalize.Issue) {
		i.Resolution = strPtr("Fixed")
	})}
	current := []normalize.Issue{issue("PROJ-1", func(i *normalize.Issue) {
		i.Resolution = strPtr("Won't Fix")
	})}

	assert.Empty(t, Changes(previous, current, detectedAt))
}

func TestRemovedIssuesAreNotReported(t *testing.T) {
	previous := []normalize.Issue{issue("PROJ-1"), issue("PROJ-2")}
	current := []normalize.Issue{issue("PROJ-1")}

	assert.Empty(t, Changes(previous, current, detectedAt))
}
