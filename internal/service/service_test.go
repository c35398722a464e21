package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhradil/jiratrack/internal/compare"
	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/jira"
	"github.com/mhradil/jiratrack/internal/store"
)

// fakeJira is a minimal search endpoint whose issue list can be swapped
// between runs.
type fakeJira struct {
	mu       sync.Mutex
	issues   []map[string]interface{}
	requests int32
	fail     int32
	block    chan struct{}

	server *httptest.Server
}

func newFakeJira(t *testing.T) *fakeJira {
	t.Helper()

	f := &fakeJira{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&f.requests, 1)

		if atomic.LoadInt32(&f.fail) != 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		block := f.block
		issues := f.issues
		f.mu.Unlock()

		if block != nil {
			<-block
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt":    0,
			"maxResults": 100,
			"total":      len(issues),
			"issues":     issues,
		})
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeJira) setIssues(issues ...map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues = issues
}

func rawIssue(key, status string) map[string]interface{} {
	return map[string]interface{}{
		"key": key,
		"fields": map[string]interface{}{
			"summary": "Summary of " + key,
			"status":  map[string]interface{}{"name": status},
		},
	}
}

func newTestService(t *testing.T, f *fakeJira) (*Service, *store.Store) {
	t.Helper()

	client, err := jira.NewClient(f.server.URL, "user@example.com", "token")
	require.NoError(t, err)
	client.SetRetryConfig(jira.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})

	settings := config.Default()
	settings.Jira.BaseURL = f.server.URL
	settings.Collection.Projects = []string{"PROJ"}

	st := store.NewStore(t.TempDir())
	return NewService(client, st, settings), st
}

func TestRunDetectsChangesAndPersists(t *testing.T) {
	f := newFakeJira(t)
	svc, st := newTestService(t, f)

	// First run seeds the latest batch; there is no previous set to diff.
	f.setIssues(rawIssue("PROJ-1", "To Do"))
	result := svc.Run(context.Background(), store.TriggerManual)
	require.True(t, result.Success, "first run failed: %s", result.Error)
	assert.Equal(t, 1, result.IssueCount)
	assert.Equal(t, 0, result.Changes)

	// Second run: PROJ-1 progressed and PROJ-2 appeared.
	f.setIssues(rawIssue("PROJ-1", "In Progress"), rawIssue("PROJ-2", "To Do"))
	result = svc.Run(context.Background(), store.TriggerManual)
	require.True(t, result.Success, "second run failed: %s", result.Error)
	assert.Equal(t, 2, result.IssueCount)
	assert.Equal(t, 2, result.Changes)

	entries, err := st.LoadChangelog()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "PROJ-1", entries[0].IssueKey)
	assert.Equal(t, compare.KindStatus, entries[0].Kind)
	assert.Equal(t, "To Do", *entries[0].OldValue)
	assert.Equal(t, "In Progress", *entries[0].NewValue)

	assert.Equal(t, "PROJ-2", entries[1].IssueKey)
	assert.Equal(t, compare.KindCreated, entries[1].Kind)

	latest, err := st.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Count)

	assert.FileExists(t, result.SnapshotPath, "each run writes a dated snapshot")

	meta, err := st.LoadMeta()
	require.NoError(t, err)
	require.Len(t, meta.History, 2)
	assert.True(t, meta.History[0].Success)
	assert.Equal(t, store.TriggerManual, meta.History[0].Trigger)
	assert.Equal(t, 2, meta.History[0].IssueCount)
}

func TestRunFailureLeavesPriorStateUntouched(t *testing.T) {
	f := newFakeJira(t)
	svc, st := newTestService(t, f)

	f.setIssues(rawIssue("PROJ-1", "To Do"))
	require.True(t, svc.Run(context.Background(), store.TriggerManual).Success)

	// Make the remote fail hard.
	atomic.StoreInt32(&f.fail, 1)

	result := svc.Run(context.Background(), store.TriggerScheduled)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	latest, err := st.LoadLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1, latest.Count, "failed run must not replace the latest batch")

	meta, err := st.LoadMeta()
	require.NoError(t, err)
	require.Len(t, meta.History, 2)
	assert.False(t, meta.History[0].Success)
	require.NotNil(t, meta.History[0].Error)
	assert.Equal(t, store.TriggerScheduled, meta.History[0].Trigger)
}

func TestSecondRunWhileRunningFailsImmediately(t *testing.T) {
	f := newFakeJira(t)
	svc, _ := newTestService(t, f)

	release := make(chan struct{})
	f.mu.Lock()
	f.block = release
	f.issues = []map[string]interface{}{rawIssue("PROJ-1", "To Do")}
	f.mu.Unlock()

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- svc.Run(context.Background(), store.TriggerScheduled)
	}()

	// Wait until the first run is inside the remote call.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&f.requests) == 1
	}, time.Second, time.Millisecond)

	second := svc.Run(context.Background(), store.TriggerManual)
	assert.False(t, second.Success)
	assert.Equal(t, ErrSyncInProgress.Error(), second.Error)
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.requests), "rejected run must not issue a network call")

	close(release)
	first := <-firstDone
	assert.True(t, first.Success, "the running sync is unaffected by the rejected start")
}

func TestStatus(t *testing.T) {
	f := newFakeJira(t)
	svc, _ := newTestService(t, f)

	status := svc.Status()
	assert.False(t, status.IsRunning)
	assert.Nil(t, status.LastSync)
	assert.Nil(t, status.LastHistoryEntry)

	f.setIssues(rawIssue("PROJ-1", "To Do"))
	require.True(t, svc.Run(context.Background(), store.TriggerManual).Success)

	status = svc.Status()
	assert.False(t, status.IsRunning)
	require.NotNil(t, status.LastSync)
	require.NotNil(t, status.LastHistoryEntry)
	assert.True(t, status.LastHistoryEntry.Success)
}

func TestStatusSeededFromPersistedHistory(t *testing.T) {
	f := newFakeJira(t)
	svc, st := newTestService(t, f)

	f.setIssues(rawIssue("PROJ-1", "To Do"))
	require.True(t, svc.Run(context.Background(), store.TriggerManual).Success)

	// A fresh orchestrator over the same store remembers the last run.
	rebuilt := NewService(nil, st, config.Default())
	status := rebuilt.Status()
	require.NotNil(t, status.LastHistoryEntry)
	assert.True(t, status.LastHistoryEntry.Success)
	require.NotNil(t, status.LastSync)
}

func TestRunWithoutClientFails(t *testing.T) {
	st := store.NewStore(t.TempDir())
	svc := NewService(nil, st, config.Default())

	result := svc.Run(context.Background(), store.TriggerManual)
	assert.False(t, result.Success)
	assert.Equal(t, errNotConfigured.Error(), result.Error)

	meta, err := st.LoadMeta()
	require.NoError(t, err)
	require.Len(t, meta.History, 1, "even a misconfigured run is recorded")
	assert.False(t, meta.History[0].Success)
}

func TestObserverReceivesProgressAndCompletion(t *testing.T) {
	f := newFakeJira(t)
	svc, _ := newTestService(t, f)

	observer := &recordingObserver{}
	svc.SetObserver(observer)

	f.setIssues(rawIssue("PROJ-1", "To Do"), rawIssue("PROJ-2", "To Do"))
	require.True(t, svc.Run(context.Background(), store.TriggerManual).Success)

	require.NotEmpty(t, observer.progress)
	last := observer.progress[len(observer.progress)-1]
	assert.Equal(t, 2, last.current)
	assert.Equal(t, 2, last.total)
	assert.Equal(t, float64(100), last.percent)

	require.Len(t, observer.completed, 1)
	assert.True(t, observer.completed[0].Success)
}

type progressCall struct {
	current, total int
	percent        float64
}

type recordingObserver struct {
	progress  []progressCall
	completed []Result
}

func (o *recordingObserver) Progress(current, total int, percent float64) {
	o.progress = append(o.progress, progressCall{current, total, percent})
}

func (o *recordingObserver) Completed(result Result) {
	o.completed = append(o.completed, result)
}
