package jira

import (
	"fmt"
	"strings"
)

// defaultOrderClause keeps page order stable across a paginated fetch.
const defaultOrderClause = "ORDER BY updated DESC"

// BuildFilterExpression combines the project selection, assignee selection
// and a free-form JQL clause into one deterministic query. An ordering clause
// is appended unless the custom clause already carries one.
func BuildFilterExpression(projects, assignees []string, customJQL string) string {
	var clauses []string

	if len(projects) > 0 {
		clauses = append(clauses, fmt.Sprintf("project in (%s)", quoteList(projects)))
	}
	if len(assignees) > 0 {
		clauses = append(clauses, fmt.Sprintf("assignee in (%s)", quoteList(assignees)))
	}
	if custom := strings.TrimSpace(customJQL); custom != "" {
		clauses = append(clauses, "("+custom+")")
	}

	jql := strings.Join(clauses, " AND ")

	if !strings.Contains(strings.ToLower(jql), "order by") {
		if jql == "" {
			return defaultOrderClause
		}
		jql += " " + defaultOrderClause
	}

	return jql
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return strings.Join(quoted, ", ")
}
