// Package schedule arms recurring daily wall-clock triggers. A trigger set
// owns all triggers armed from one schedule; the scheduler composes a global
// set with independent per-team sets. Firing is fire-and-forget: the
// triggered routine is responsible for catching and recording its own
// failures.
package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TriggerSet holds the active triggers armed from one list of HH:MM times.
type TriggerSet struct {
	log *logrus.Entry

	mu    sync.Mutex
	stops []chan struct{}
}

// NewTriggerSet creates an empty trigger set with a named log context.
func NewTriggerSet(name string) *TriggerSet {
	return &TriggerSet{log: logrus.WithField("component", "schedule").WithField("set", name)}
}

// Start clears any active triggers and arms one recurring daily trigger per
// configured time. Restarting is idempotent.
func (ts *TriggerSet) Start(times []string, fire func()) error {
	ts.Stop()

	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, clock := range times {
		at, err := time.Parse("15:04", clock)
		if err != nil {
			return fmt.Errorf("invalid trigger time %q: %w", clock, err)
		}

		stop := make(chan struct{})
		ts.stops = append(ts.stops, stop)
		go runTrigger(at.Hour(), at.Minute(), stop, fire)

		ts.log.WithField("time", clock).Debug("armed daily trigger")
	}

	return nil
}

// Stop clears every active trigger.
func (ts *TriggerSet) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, stop := range ts.stops {
		close(stop)
	}
	ts.stops = nil
}

// runTrigger sleeps until the next occurrence of hour:minute, fires, and
// re-arms for the following day until stopped.
func runTrigger(hour, minute int, stop <-chan struct{}, fire func()) {
	for {
		timer := time.NewTimer(untilNext(time.Now(), hour, minute))
		select {
		case <-timer.C:
			fire()
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// untilNext returns the wait until the next occurrence of hour:minute,
// rolling to tomorrow when the time already passed today.
func untilNext(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// NextRunTime returns the next upcoming trigger time for the given HH:MM
// list: the earliest remaining time today, or the earliest configured time
// tomorrow. The second return is false when no time parses.
func NextRunTime(times []string, now time.Time) (time.Time, bool) {
	var candidates []time.Time
	for _, clock := range times {
		at, err := time.Parse("15:04", clock)
		if err != nil {
			continue
		}
		candidates = append(candidates,
			time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location()))
	}
	if len(candidates) == 0 {
		return time.Time{}, false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	for _, candidate := range candidates {
		if candidate.After(now) {
			return candidate, true
		}
	}
	return candidates[0].AddDate(0, 0, 1), true
}

// Scheduler owns the global trigger set plus one independent set per team.
type Scheduler struct {
	mu     sync.Mutex
	global *TriggerSet
	teams  map[string]*TriggerSet
}

// New creates a scheduler with no armed triggers.
func New() *Scheduler {
	return &Scheduler{
		global: NewTriggerSet("global"),
		teams:  make(map[string]*TriggerSet),
	}
}

// StartGlobal (re)arms the global trigger set.
func (s *Scheduler) StartGlobal(times []string, fire func()) error {
	return s.global.Start(times, fire)
}

// StopGlobal clears the global trigger set.
func (s *Scheduler) StopGlobal() {
	s.global.Stop()
}

// StartTeam (re)arms the trigger set for one team without disturbing others.
func (s *Scheduler) StartTeam(teamID string, times []string, fire func()) error {
	s.mu.Lock()
	set, ok := s.teams[teamID]
	if !ok {
		set = NewTriggerSet("team/" + teamID)
		s.teams[teamID] = set
	}
	s.mu.Unlock()

	return set.Start(times, fire)
}

// StopTeam clears the trigger set for one team.
func (s *Scheduler) StopTeam(teamID string) {
	s.mu.Lock()
	set, ok := s.teams[teamID]
	s.mu.Unlock()

	if ok {
		set.Stop()
	}
}

// StopAll clears the global set and every team set.
func (s *Scheduler) StopAll() {
	s.global.Stop()

	s.mu.Lock()
	sets := make([]*TriggerSet, 0, len(s.teams))
	for _, set := range s.teams {
		sets = append(sets, set)
	}
	s.teams = make(map[string]*TriggerSet)
	s.mu.Unlock()

	for _, set := range sets {
		set.Stop()
	}
}
