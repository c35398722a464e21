// Package app owns the service container: every collaborator is constructed
// from the current settings once at startup, and a settings save rebuilds the
// affected collaborators and swaps them in atomically instead of mutating
// ambient singletons.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/jira"
	"github.com/mhradil/jiratrack/internal/notify"
	"github.com/mhradil/jiratrack/internal/schedule"
	"github.com/mhradil/jiratrack/internal/secrets"
	"github.com/mhradil/jiratrack/internal/service"
	"github.com/mhradil/jiratrack/internal/store"
)

// App is the process-wide container passed by reference into every entry
// point.
type App struct {
	store     *store.Store
	secrets   secrets.Store
	scheduler *schedule.Scheduler
	sink      notify.Sink
	log       *logrus.Entry

	mu         sync.RWMutex
	settings   config.Settings
	client     *jira.Client
	service    *service.Service
	scheduling bool
}

// New builds the container from the settings persisted under dataDir.
// Settings load never fails; a missing or malformed document falls back to
// defaults.
func New(dataDir string) (*App, error) {
	a := &App{
		store:     store.NewStore(dataDir),
		secrets:   secrets.NewFileStore(filepath.Join(dataDir, "secrets")),
		scheduler: schedule.New(),
		sink:      notify.NewLogSink(),
		log:       logrus.WithField("component", "app"),
	}

	if err := a.build(a.store.LoadSettings()); err != nil {
		return nil, err
	}
	return a, nil
}

// build constructs the settings-derived collaborators and swaps them in.
func (a *App) build(settings config.Settings) error {
	var client *jira.Client
	if settings.Jira.BaseURL != "" {
		token, err := a.secrets.Get(secrets.PurposeAPIToken)
		if err != nil && !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("failed to read API token: %w", err)
		}

		client, err = jira.NewClient(settings.Jira.BaseURL, settings.Jira.Username, token)
		if err != nil {
			return err
		}
	}

	svc := service.NewService(client, a.store, settings)

	a.mu.Lock()
	a.settings = settings
	a.client = client
	a.service = svc
	a.mu.Unlock()

	return nil
}

// Store returns the persistent store, which survives rebuilds.
func (a *App) Store() *store.Store { return a.store }

// Secrets returns the credential store.
func (a *App) Secrets() secrets.Store { return a.secrets }

// Settings returns a copy of the current settings.
func (a *App) Settings() config.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Service returns the current sync orchestrator.
func (a *App) Service() *service.Service {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.service
}

// Client returns the current remote client, nil when not configured.
func (a *App) Client() *jira.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client
}

// Rebuild validates and persists new settings, tears down the active
// schedules, constructs fresh collaborators and re-arms the schedules that
// were running.
func (a *App) Rebuild(settings config.Settings) error {
	if err := a.store.SaveSettings(settings); err != nil {
		return err
	}

	a.mu.RLock()
	wasScheduling := a.scheduling
	a.mu.RUnlock()

	a.scheduler.StopAll()

	if err := a.build(settings); err != nil {
		return err
	}

	if wasScheduling {
		return a.StartSchedules()
	}
	return nil
}

// StartSchedules arms the global sync schedule and every enabled per-team
// notification schedule from the current settings.
func (a *App) StartSchedules() error {
	a.mu.Lock()
	settings := a.settings
	a.scheduling = true
	a.mu.Unlock()

	if settings.Schedule.Enabled {
		err := a.scheduler.StartGlobal(settings.Schedule.Times, func() {
			// The orchestrator records its own failures; nothing to handle here.
			a.Service().Run(context.Background(), store.TriggerScheduled)
		})
		if err != nil {
			return err
		}

		if next, ok := schedule.NextRunTime(settings.Schedule.Times, time.Now()); ok {
			a.log.WithField("next", next.Format("2006-01-02 15:04")).Info("global sync schedule armed")
		}
	}

	for _, team := range settings.Teams {
		if !team.Schedule.Enabled {
			continue
		}
		team := team
		err := a.scheduler.StartTeam(team.ID, team.Schedule.Times, func() {
			a.notifyTeam(team)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// StopSchedules clears every armed trigger.
func (a *App) StopSchedules() {
	a.mu.Lock()
	a.scheduling = false
	a.mu.Unlock()

	a.scheduler.StopAll()
}

// notifyTeam composes and delivers one team digest from the latest batch.
func (a *App) notifyTeam(team config.Team) {
	latest, err := a.store.LoadLatest()
	if err != nil {
		a.log.WithError(err).WithField("team", team.ID).Warn("cannot load latest batch for team digest")
		return
	}

	subject, body := notify.TeamDigest(team, latest)
	if err := a.sink.Deliver(context.Background(), subject, body); err != nil {
		a.log.WithError(err).WithField("team", team.ID).Warn("failed to deliver team digest")
	}
}
