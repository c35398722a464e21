package jira

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterExpression(t *testing.T) {
	tests := []struct {
		name      string
		projects  []string
		assignees []string
		customJQL string
		expected  string
	}{
		{
			name:     "empty inputs still produce an ordering clause",
			expected: "ORDER BY updated DESC",
		},
		{
			name:     "projects only",
			projects: []string{"PROJ"},
			expected: `project in ("PROJ") ORDER BY updated DESC`,
		},
		{
			name:      "projects and assignees are joined with AND",
			projects:  []string{"PROJ", "OTHER"},
			assignees: []string{"Jane Doe"},
			expected:  `project in ("PROJ", "OTHER") AND assignee in ("Jane Doe") ORDER BY updated DESC`,
		},
		{
			name:      "custom clause is parenthesized",
			projects:  []string{"PROJ"},
			customJQL: "labels = urgent",
			expected:  `project in ("PROJ") AND (labels = urgent) ORDER BY updated DESC`,
		},
		{
			name:      "custom ordering clause is respected",
			projects:  []string{"PROJ"},
			customJQL: "labels = urgent ORDER BY created ASC",
			expected:  `project in ("PROJ") AND (labels = urgent ORDER BY created ASC)`,
		},
		{
			name:      "custom clause whitespace is trimmed",
			customJQL: "  status = Done  ",
			expected:  "(status = Done) ORDER BY updated DESC",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := BuildFilterExpression(tc.projects, tc.assignees, tc.customJQL)
			assert.Equal(t, tc.expected, result)

			// Deterministic: the same inputs always build the same expression.
			assert.Equal(t, result, BuildFilterExpression(tc.projects, tc.assignees, tc.customJQL))
		})
	}
}
