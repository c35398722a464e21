package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/normalize"
	"github.com/mhradil/jiratrack/internal/store"
)

func strPtr(s string) *string { return &s }

func TestTeamDigestNoData(t *testing.T) {
	team := config.Team{ID: "core", Name: "Core"}

	subject, body := TeamDigest(team, nil)

	assert.Equal(t, "Status digest: Core", subject)
	assert.Equal(t, "No synced data available yet.", body)
}

func TestTeamDigestCountsTeamIssuesByCategory(t *testing.T) {
	team := config.Team{ID: "core", Name: "Core", Assignees: []string{"Jane Doe", "John Roe"}}
	latest := &store.StoredData{
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Issues: []normalize.Issue{
			{Key: "PROJ-1", Assignee: strPtr("Jane Doe"), StatusCategory: normalize.CategoryIndeterminate},
			{Key: "PROJ-2", Assignee: strPtr("John Roe"), StatusCategory: normalize.CategoryIndeterminate},
			{Key: "PROJ-3", Assignee: strPtr("Jane Doe"), StatusCategory: normalize.CategoryDone},
			{Key: "PROJ-4", Assignee: strPtr("Someone Else"), StatusCategory: normalize.CategoryNew},
			{Key: "PROJ-5", Assignee: nil, StatusCategory: normalize.CategoryNew},
		},
	}

	subject, body := TeamDigest(team, latest)

	assert.Equal(t, "Status digest: Core", subject)
	assert.Equal(t, "3 issues assigned to Core as of 2024-03-01 09:30. indeterminate: 2. done: 1.", body)
}
