package jira

// Raw wire types for the v3 search endpoint. The go-jira library models the
// v2 API where descriptions are plain strings; the v3 payloads carry
// Atlassian Document Format trees and the sprint/story-point custom fields,
// so the search response is decoded into these repo-local types instead.

// searchResponse is one page of the paginated issue search.
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// SearchPage is the caller-facing view of one fetched page.
type SearchPage struct {
	Issues   []Issue
	Total    int
	PageSize int
}

// Issue is one raw issue as returned by the search endpoint.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields carries the allowlisted issue fields.
type Fields struct {
	Summary      string        `json:"summary"`
	Description  *ADFNode      `json:"description"`
	Status       *Status       `json:"status"`
	Assignee     *User         `json:"assignee"`
	Reporter     *User         `json:"reporter"`
	Priority     *Named        `json:"priority"`
	IssueType    *Named        `json:"issuetype"`
	StoryPoints  *float64      `json:"customfield_10016"`
	Sprints      []Sprint      `json:"customfield_10020"`
	Labels       []string      `json:"labels"`
	Components   []Named       `json:"components"`
	Created      string        `json:"created"`
	Updated      string        `json:"updated"`
	DueDate      *string       `json:"duedate"`
	Resolution   *Named        `json:"resolution"`
	TimeTracking *TimeTracking `json:"timetracking"`
	Parent       *IssueRef     `json:"parent"`
	Subtasks     []IssueRef    `json:"subtasks"`
	IssueLinks   []IssueLink   `json:"issuelinks"`
}

// Named is the common {name} shape used by priority, resolution and components.
type Named struct {
	Name string `json:"name"`
}

// Status carries the status name plus its category key.
type Status struct {
	Name           string `json:"name"`
	StatusCategory struct {
		Key string `json:"key"`
	} `json:"statusCategory"`
}

// User identifies an account on the remote instance.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// Sprint is one entry of the sprint custom field.
type Sprint struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
}

// TimeTracking mirrors the remote time-tracking sub-record.
type TimeTracking struct {
	OriginalEstimateSeconds  int `json:"originalEstimateSeconds"`
	RemainingEstimateSeconds int `json:"remainingEstimateSeconds"`
	TimeSpentSeconds         int `json:"timeSpentSeconds"`
}

// IssueRef is a minimal reference to another issue (parent, subtask).
type IssueRef struct {
	Key string `json:"key"`
}

// IssueLink is one raw issue link; exactly one of OutwardIssue/InwardIssue
// is set and determines the link direction.
type IssueLink struct {
	Type         Named     `json:"type"`
	OutwardIssue *IssueRef `json:"outwardIssue"`
	InwardIssue  *IssueRef `json:"inwardIssue"`
}

// ADFNode is one node of an Atlassian Document Format tree.
type ADFNode struct {
	Type    string                 `json:"type"`
	Text    string                 `json:"text,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Marks   []ADFMark              `json:"marks,omitempty"`
	Content []ADFNode              `json:"content,omitempty"`
}

// ADFMark annotates a text node (strong, em, code, link).
type ADFMark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// Project is one entry of the remote project listing.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
