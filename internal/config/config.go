// Package config defines the jiratrack settings document and its validation
// rules. Settings are stored as a single YAML file and replaced wholesale on
// every save; loading is handled by the store, which never fails and falls
// back to Default() for malformed documents.
package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// MinRetentionDays and MaxRetentionDays bound the snapshot retention window.
	MinRetentionDays = 1
	MaxRetentionDays = 365

	defaultRetentionDays = 30
)

// Settings is the root configuration document.
type Settings struct {
	Jira          JiraSettings       `yaml:"jira"`
	Collection    CollectionSettings `yaml:"collection"`
	Schedule      ScheduleSettings   `yaml:"schedule"`
	RetentionDays int                `yaml:"retentionDays"`
	Teams         []Team             `yaml:"teams"`
}

// JiraSettings describes the remote Jira instance connection.
type JiraSettings struct {
	BaseURL  string `yaml:"baseUrl"`
	Username string `yaml:"username"`
}

// CollectionSettings selects which issues each sync pulls.
type CollectionSettings struct {
	Projects  []string `yaml:"projects"`
	Assignees []string `yaml:"assignees"`
	CustomJQL string   `yaml:"customJql"`
}

// ScheduleSettings holds an enabled flag plus an ordered list of HH:MM
// trigger times.
type ScheduleSettings struct {
	Enabled bool     `yaml:"enabled"`
	Times   []string `yaml:"times"`
}

// Team is one independently scheduled group of assignees.
type Team struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	Color     string           `yaml:"color"`
	Assignees []string         `yaml:"assignees"`
	Schedule  ScheduleSettings `yaml:"schedule"`
}

// ValidationError describes a settings field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid settings: %s: %s", e.Field, e.Reason)
}

// Default returns the hard-coded fallback settings used when no settings
// document exists or the stored one cannot be repaired.
func Default() Settings {
	return Settings{
		Schedule: ScheduleSettings{
			Enabled: false,
			Times:   []string{"09:00"},
		},
		RetentionDays: defaultRetentionDays,
	}
}

// Validate checks the whole document and returns a *ValidationError for the
// first problem found.
func (s *Settings) Validate() error {
	if s.Jira.BaseURL != "" {
		u, err := url.Parse(s.Jira.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ValidationError{Field: "jira.baseUrl", Reason: "must be an absolute URL"}
		}
	}

	if s.RetentionDays < MinRetentionDays || s.RetentionDays > MaxRetentionDays {
		return &ValidationError{
			Field:  "retentionDays",
			Reason: fmt.Sprintf("must be between %d and %d", MinRetentionDays, MaxRetentionDays),
		}
	}

	if err := s.Schedule.validate("schedule"); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Teams))
	for i, team := range s.Teams {
		field := fmt.Sprintf("teams[%d]", i)
		if team.ID == "" {
			return &ValidationError{Field: field + ".id", Reason: "must not be empty"}
		}
		if seen[team.ID] {
			return &ValidationError{Field: field + ".id", Reason: "duplicate team id " + team.ID}
		}
		seen[team.ID] = true
		if team.Name == "" {
			return &ValidationError{Field: field + ".name", Reason: "must not be empty"}
		}
		if err := team.Schedule.validate(field + ".schedule"); err != nil {
			return err
		}
	}

	return nil
}

func (s *ScheduleSettings) validate(field string) error {
	for _, clock := range s.Times {
		if _, err := time.Parse("15:04", clock); err != nil {
			return &ValidationError{
				Field:  field + ".times",
				Reason: fmt.Sprintf("%q is not a valid HH:MM time", clock),
			}
		}
	}
	return nil
}
