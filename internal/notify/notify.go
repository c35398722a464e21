// Package notify carries the outbound message sink contract and the per-team
// digest text the scheduler delivers. Actual chat/email transports implement
// Sink elsewhere; the default sink logs.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/normalize"
	"github.com/mhradil/jiratrack/internal/store"
)

// Sink consumes already-produced message text.
type Sink interface {
	Deliver(ctx context.Context, subject, body string) error
}

// LogSink writes messages to the log instead of an external channel.
type LogSink struct {
	log *logrus.Entry
}

// NewLogSink creates the default logging sink.
func NewLogSink() *LogSink {
	return &LogSink{log: logrus.WithField("component", "notify")}
}

// Deliver logs the message.
func (s *LogSink) Deliver(_ context.Context, subject, body string) error {
	s.log.WithField("subject", subject).Info(body)
	return nil
}

// TeamDigest renders the digest for one team from the latest synced batch:
// the team's issues grouped by status category.
func TeamDigest(team config.Team, latest *store.StoredData) (string, string) {
	subject := fmt.Sprintf("Status digest: %s", team.Name)

	if latest == nil {
		return subject, "No synced data available yet."
	}

	members := make(map[string]bool, len(team.Assignees))
	for _, assignee := range team.Assignees {
		members[assignee] = true
	}

	counts := map[string]int{}
	total := 0
	for _, issue := range latest.Issues {
		if issue.Assignee == nil || !members[*issue.Assignee] {
			continue
		}
		counts[issue.StatusCategory]++
		total++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d issues assigned to %s as of %s.",
		total, team.Name, latest.Timestamp.Format("2006-01-02 15:04"))
	for _, category := range []string{normalize.CategoryNew, normalize.CategoryIndeterminate, normalize.CategoryDone} {
		if counts[category] > 0 {
			fmt.Fprintf(&sb, " %s: %d.", category, counts[category])
		}
	}

	return subject, sb.String()
}
