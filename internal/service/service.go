// Package service orchestrates one sync run: fetch, normalize, diff, persist,
// record history, and prune retention. At most one run may be in progress;
// concurrent starts fail immediately instead of queueing.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mhradil/jiratrack/internal/compare"
	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/jira"
	"github.com/mhradil/jiratrack/internal/normalize"
	"github.com/mhradil/jiratrack/internal/store"
)

// ErrSyncInProgress reports a start attempt while a run is already Running.
var ErrSyncInProgress = errors.New("a sync is already running")

// errNotConfigured reports a run attempt before the connection is set up.
var errNotConfigured = errors.New("jira connection is not configured")

// Observer receives progress during a run and the result at its end.
type Observer interface {
	Progress(current, total int, percent float64)
	Completed(result Result)
}

// Result is the structured outcome of one run.
type Result struct {
	Success      bool
	IssueCount   int
	Changes      int
	Duration     time.Duration
	SnapshotPath string
	Error        string
}

// Status is a cheap, non-blocking view of the orchestrator state.
type Status struct {
	IsRunning        bool
	LastSync         *time.Time
	LastHistoryEntry *store.SyncHistoryEntry
}

// Service composes the remote client, normalizer, diff engine and store into
// the sync state machine.
type Service struct {
	client     *jira.Client
	normalizer *normalize.Normalizer
	store      *store.Store
	settings   config.Settings
	observer   Observer
	log        *logrus.Entry

	mu        sync.Mutex
	running   bool
	lastSync  *time.Time
	lastEntry *store.SyncHistoryEntry
}

// NewService creates an orchestrator. The client may be nil when the
// connection is not configured yet; runs then fail with a descriptive result.
func NewService(client *jira.Client, st *store.Store, settings config.Settings) *Service {
	s := &Service{
		client:     client,
		normalizer: normalize.New(),
		store:      st,
		settings:   settings,
		log:        logrus.WithField("component", "sync"),
	}

	// Seed status from the persisted run log so a restart does not forget the
	// last run.
	if meta, err := st.LoadMeta(); err == nil && len(meta.History) > 0 {
		entry := meta.History[0]
		s.lastEntry = &entry
		if entry.Success {
			t := entry.Timestamp
			s.lastSync = &t
		}
	}

	return s
}

// SetObserver installs the progress/completion sink. Pass nil to remove it.
func (s *Service) SetObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Status returns the current orchestrator state without blocking on I/O.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		IsRunning:        s.running,
		LastSync:         s.lastSync,
		LastHistoryEntry: s.lastEntry,
	}
}

// Run executes one sync. Starting while another run is in progress returns a
// failure result immediately, with no side effects on the running sync.
func (s *Service) Run(ctx context.Context, trigger string) Result {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{Success: false, Error: ErrSyncInProgress.Error()}
	}
	s.running = true
	observer := s.observer
	s.mu.Unlock()

	started := time.Now()
	s.log.WithField("trigger", trigger).Info("sync started")

	result := s.run(ctx, observer)
	result.Duration = time.Since(started)

	entry := store.SyncHistoryEntry{
		Timestamp:  started,
		Trigger:    trigger,
		IssueCount: result.IssueCount,
		DurationMS: result.Duration.Milliseconds(),
		Success:    result.Success,
	}
	if !result.Success {
		message := result.Error
		entry.Error = &message
		s.log.WithField("error", message).Warn("sync failed")
	} else {
		s.log.WithField("issues", result.IssueCount).WithField("changes", result.Changes).Info("sync finished")
	}

	if err := s.store.AppendHistory(entry); err != nil {
		s.log.WithError(err).Warn("failed to record run history")
	}

	if result.Success {
		if _, err := s.store.CleanupSnapshots(s.settings.RetentionDays, time.Now()); err != nil {
			s.log.WithError(err).Warn("snapshot retention cleanup failed")
		}
	}

	s.mu.Lock()
	s.running = false
	s.lastEntry = &entry
	if result.Success {
		t := started
		s.lastSync = &t
	}
	s.mu.Unlock()

	if observer != nil {
		observer.Completed(result)
	}

	return result
}

// run performs the fetch → normalize → diff → persist steps. Nothing is
// committed to the latest batch unless every earlier step succeeded.
func (s *Service) run(ctx context.Context, observer Observer) Result {
	if s.client == nil {
		return Result{Success: false, Error: errNotConfigured.Error()}
	}

	jql := jira.BuildFilterExpression(
		s.settings.Collection.Projects,
		s.settings.Collection.Assignees,
		s.settings.Collection.CustomJQL,
	)

	var onProgress jira.ProgressFunc
	if observer != nil {
		onProgress = func(current, total int) {
			percent := float64(100)
			if total > 0 {
				percent = float64(current) / float64(total) * 100
			}
			observer.Progress(current, total, percent)
		}
	}

	raw, err := s.client.FetchAll(ctx, jql, onProgress)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	issues := s.normalizer.Batch(raw)
	now := time.Now()

	previous, err := s.store.LoadLatest()
	if err != nil {
		return Result{Success: false, IssueCount: len(issues), Error: err.Error()}
	}

	var changes []compare.ChangelogEntry
	if previous != nil {
		changes = compare.Changes(previous.Issues, issues, now)
		if len(changes) > 0 {
			if err := s.store.AppendChangelog(changes); err != nil {
				return Result{Success: false, IssueCount: len(issues), Error: err.Error()}
			}
		}
	}

	batch := store.StoredData{
		Timestamp: now,
		Source: store.Source{
			BaseURL:  s.settings.Jira.BaseURL,
			Projects: s.settings.Collection.Projects,
		},
		Issues: issues,
		Count:  len(issues),
	}

	if err := s.store.SaveLatest(batch); err != nil {
		return Result{Success: false, IssueCount: len(issues), Error: err.Error()}
	}

	snapshotPath, err := s.store.SaveSnapshot(batch)
	if err != nil {
		return Result{Success: false, IssueCount: len(issues), Error: err.Error()}
	}

	return Result{
		Success:      true,
		IssueCount:   len(issues),
		Changes:      len(changes),
		SnapshotPath: snapshotPath,
	}
}
