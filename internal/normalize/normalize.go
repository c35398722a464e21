// Package normalize maps raw remote issues into the canonical flat record the
// diff engine and store operate on. Every optional sub-field is extracted
// defensively: missing values become nil or an empty collection, never an
// absent field.
package normalize

import (
	"strings"

	"github.com/mhradil/jiratrack/internal/jira"
)

// Normalizer converts raw issue batches. It owns the description conversion
// cache exclusively; the cache is pruned after every batch.
type Normalizer struct {
	cache *ConversionCache
}

// New creates a Normalizer with an empty conversion cache.
func New() *Normalizer {
	return &Normalizer{cache: newConversionCache()}
}

// Batch normalizes one fetched batch in order and prunes the conversion
// cache down to the keys seen in it.
func (n *Normalizer) Batch(raw []jira.Issue) []Issue {
	issues := make([]Issue, 0, len(raw))
	active := make(map[string]bool, len(raw))

	for _, r := range raw {
		issues = append(issues, n.normalize(r))
		active[cacheKey(r.Key, r.Fields.Updated)] = true
	}

	n.cache.Prune(active)
	return issues
}

func (n *Normalizer) normalize(raw jira.Issue) Issue {
	f := raw.Fields

	issue := Issue{
		Key:            raw.Key,
		Summary:        f.Summary,
		StatusCategory: CategoryNew,
		Assignee:       displayName(f.Assignee),
		Reporter:       displayName(f.Reporter),
		Priority:       namedValue(f.Priority),
		StoryPoints:    f.StoryPoints,
		Labels:         append([]string{}, f.Labels...),
		Components:     make([]string, 0, len(f.Components)),
		Created:        f.Created,
		Updated:        f.Updated,
		DueDate:        optionalString(f.DueDate),
		Resolution:     namedValue(f.Resolution),
		Description:    n.cache.Convert(raw.Key, f.Updated, f.Description),
		Subtasks:       make([]string, 0, len(f.Subtasks)),
		Links:          make([]Link, 0, len(f.IssueLinks)),
	}

	if f.Status != nil {
		issue.Status = f.Status.Name
		if key := f.Status.StatusCategory.Key; key != "" {
			issue.StatusCategory = key
		}
	}
	if f.IssueType != nil {
		issue.IssueType = f.IssueType.Name
	}
	for _, component := range f.Components {
		issue.Components = append(issue.Components, component.Name)
	}
	if f.TimeTracking != nil {
		tracking := TimeTracking(*f.TimeTracking)
		issue.TimeTracking = &tracking
	}
	if f.Parent != nil && f.Parent.Key != "" {
		key := f.Parent.Key
		issue.ParentKey = &key
	}
	for _, subtask := range f.Subtasks {
		issue.Subtasks = append(issue.Subtasks, subtask.Key)
	}

	if sprint := selectSprint(f.Sprints); sprint != nil {
		name := sprint.Name
		issue.Sprint = &name
		if sprint.StartDate != "" {
			start := sprint.StartDate
			issue.StartDate = &start
		}
	}

	for _, link := range f.IssueLinks {
		issue.Links = append(issue.Links, normalizeLink(link))
	}

	return issue
}

// selectSprint implements the active-sprint policy: prefer a sprint flagged
// active, else the first sprint in the list, else none.
func selectSprint(sprints []jira.Sprint) *jira.Sprint {
	if len(sprints) == 0 {
		return nil
	}
	for i := range sprints {
		if strings.EqualFold(sprints[i].State, "active") {
			return &sprints[i]
		}
	}
	return &sprints[0]
}

// normalizeLink derives the direction from which side of the raw link is set:
// outward if the link carries an outward reference, inward otherwise.
func normalizeLink(link jira.IssueLink) Link {
	if link.OutwardIssue != nil {
		return Link{Type: link.Type.Name, Direction: DirectionOutward, IssueKey: link.OutwardIssue.Key}
	}
	normalized := Link{Type: link.Type.Name, Direction: DirectionInward}
	if link.InwardIssue != nil {
		normalized.IssueKey = link.InwardIssue.Key
	}
	return normalized
}

func displayName(user *jira.User) *string {
	if user == nil {
		return nil
	}
	name := user.DisplayName
	return &name
}

func namedValue(named *jira.Named) *string {
	if named == nil {
		return nil
	}
	name := named.Name
	return &name
}

func optionalString(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}
