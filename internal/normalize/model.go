package normalize

// Link directions as recorded on a normalized issue link.
const (
	DirectionOutward = "outward"
	DirectionInward  = "inward"
)

// Status category keys, mirroring the remote tri-state.
const (
	CategoryNew           = "new"
	CategoryIndeterminate = "indeterminate"
	CategoryDone          = "done"
)

// Issue is the canonical flat record one raw remote issue normalizes into.
// Optional fields are pointers so that absent and zero stay distinguishable;
// story points of 0 are valid and distinct from null.
type Issue struct {
	Key            string        `json:"key"`
	Summary        string        `json:"summary"`
	Status         string        `json:"status"`
	StatusCategory string        `json:"statusCategory"`
	Assignee       *string       `json:"assignee"`
	Reporter       *string       `json:"reporter"`
	Priority       *string       `json:"priority"`
	IssueType      string        `json:"issueType"`
	StoryPoints    *float64      `json:"storyPoints"`
	Sprint         *string       `json:"sprint"`
	StartDate      *string       `json:"startDate"`
	Labels         []string      `json:"labels"`
	Components     []string      `json:"components"`
	Created        string        `json:"created"`
	Updated        string        `json:"updated"`
	DueDate        *string       `json:"dueDate"`
	Resolution     *string       `json:"resolution"`
	Description    *string       `json:"description"`
	TimeTracking   *TimeTracking `json:"timeTracking"`
	ParentKey      *string       `json:"parentKey"`
	Subtasks       []string      `json:"subtasks"`
	Links          []Link        `json:"links"`
}

// TimeTracking is the optional time-tracking sub-record.
type TimeTracking struct {
	OriginalEstimateSeconds  int `json:"originalEstimateSeconds"`
	RemainingEstimateSeconds int `json:"remainingEstimateSeconds"`
	TimeSpentSeconds         int `json:"timeSpentSeconds"`
}

// Link is one normalized issue link.
type Link struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`
	IssueKey  string `json:"issueKey"`
}
