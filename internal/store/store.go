// Package store handles durable persistence of every jiratrack document:
// settings, the latest synced batch, dated snapshots, the changelog, the run
// history, reports, and the notes/planning documents. All mutation goes
// through a per-destination serialized atomic writer.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mhradil/jiratrack/internal/compare"
	"github.com/mhradil/jiratrack/internal/config"
)

const (
	maxHistoryEntries   = 100
	maxChangelogEntries = 500

	snapshotDayFormat  = "2006-01-02"
	snapshotFileFormat = "150405"
)

// Store provides access to all persisted documents under one data directory.
type Store struct {
	dataDir string
	writer  *atomicWriter
	log     *logrus.Entry
}

// NewStore creates a storage instance rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		writer:  newAtomicWriter(),
		log:     logrus.WithField("component", "store"),
	}
}

func (s *Store) settingsPath() string  { return filepath.Join(s.dataDir, "settings.yaml") }
func (s *Store) latestPath() string    { return filepath.Join(s.dataDir, "latest.json") }
func (s *Store) metaPath() string      { return filepath.Join(s.dataDir, "meta.json") }
func (s *Store) changelogPath() string { return filepath.Join(s.dataDir, "changelog.json") }
func (s *Store) notesPath() string     { return filepath.Join(s.dataDir, "notes.md") }
func (s *Store) planningPath() string  { return filepath.Join(s.dataDir, "planning.json") }

// SnapshotRoot returns the directory holding dated snapshot subdirectories.
func (s *Store) SnapshotRoot() string { return filepath.Join(s.dataDir, "snapshots") }

// ReportsRoot returns the directory holding report files.
func (s *Store) ReportsRoot() string { return filepath.Join(s.dataDir, "reports") }

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return s.writer.Write(path, data)
}

// readJSON reads path into out; a missing file reports found=false without
// an error.
func (s *Store) readJSON(path string, out interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// LoadSettings reads, parses and validates the settings document. It never
// fails: a malformed document is first repaired by overlaying it onto the
// defaults, and hard-coded defaults are the final fallback.
func (s *Store) LoadSettings() config.Settings {
	data, err := os.ReadFile(s.settingsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("cannot read settings, using defaults")
		}
		return config.Default()
	}

	var parsed config.Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		s.log.WithError(err).Warn("settings document is not valid YAML, using defaults")
		return config.Default()
	}
	if err := parsed.Validate(); err == nil {
		return parsed
	}

	// Shallow merge: overlay the raw document onto the defaults, so a
	// document missing newer fields self-heals instead of blocking startup.
	merged := config.Default()
	if err := yaml.Unmarshal(data, &merged); err == nil {
		if err := merged.Validate(); err == nil {
			s.log.Warn("settings document was incomplete, merged with defaults")
			return merged
		}
	}

	s.log.Warn("settings document is invalid beyond repair, using defaults")
	return config.Default()
}

// ValidateSettings checks the on-disk settings document strictly, without the
// self-healing LoadSettings applies. A missing document is valid (defaults
// apply).
func (s *Store) ValidateSettings() error {
	data, err := os.ReadFile(s.settingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var parsed config.Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("settings document is not valid YAML: %w", err)
	}
	return parsed.Validate()
}

// SaveSettings validates strictly and persists the whole document. Invalid
// input fails fast; this is a user-triggered path.
func (s *Store) SaveSettings(settings config.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return s.writer.Write(s.settingsPath(), data)
}

// SaveLatest atomically replaces the latest synced batch.
func (s *Store) SaveLatest(data StoredData) error {
	return s.writeJSON(s.latestPath(), data)
}

// LoadLatest returns the latest synced batch, or nil if none exists yet.
func (s *Store) LoadLatest() (*StoredData, error) {
	var data StoredData
	found, err := s.readJSON(s.latestPath(), &data)
	if err != nil || !found {
		return nil, err
	}
	return &data, nil
}

// SaveSnapshot writes an immutable dated copy of the batch and returns its
// path. Snapshots are only ever deleted by the retention sweep.
func (s *Store) SaveSnapshot(data StoredData) (string, error) {
	dir := filepath.Join(s.SnapshotRoot(), data.Timestamp.Format(snapshotDayFormat))
	path := filepath.Join(dir, data.Timestamp.Format(snapshotFileFormat)+".json")

	if err := s.writeJSON(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// CleanupSnapshots removes every dated snapshot directory older than
// now − retentionDays. Entries whose name does not parse as a date are left
// untouched. It returns the number of directories removed.
func (s *Store) CleanupSnapshots(retentionDays int, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.SnapshotRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		day, err := time.Parse(snapshotDayFormat, entry.Name())
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			path := filepath.Join(s.SnapshotRoot(), entry.Name())
			if err := os.RemoveAll(path); err != nil {
				return removed, fmt.Errorf("failed to remove snapshot directory %s: %w", entry.Name(), err)
			}
			s.log.WithField("dir", entry.Name()).Debug("removed expired snapshot directory")
			removed++
		}
	}

	return removed, nil
}

// AppendHistory prepends one run-log entry, keeping the most recent entries
// only. A corrupt run log is replaced rather than propagated as an error.
func (s *Store) AppendHistory(entry SyncHistoryEntry) error {
	var meta MetaData
	if _, err := s.readJSON(s.metaPath(), &meta); err != nil {
		s.log.WithError(err).Warn("run history is unreadable, starting a fresh log")
		meta = MetaData{}
	}

	meta.History = append([]SyncHistoryEntry{entry}, meta.History...)
	if len(meta.History) > maxHistoryEntries {
		meta.History = meta.History[:maxHistoryEntries]
	}

	return s.writeJSON(s.metaPath(), meta)
}

// LoadMeta returns the run log, empty if none exists.
func (s *Store) LoadMeta() (MetaData, error) {
	var meta MetaData
	_, err := s.readJSON(s.metaPath(), &meta)
	return meta, err
}

// AppendChangelog prepends new entries ahead of the existing ones and
// truncates to the most recent entries.
func (s *Store) AppendChangelog(entries []compare.ChangelogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	existing, err := s.LoadChangelog()
	if err != nil {
		s.log.WithError(err).Warn("changelog is unreadable, starting a fresh log")
		existing = nil
	}

	merged := append(append([]compare.ChangelogEntry{}, entries...), existing...)
	if len(merged) > maxChangelogEntries {
		merged = merged[:maxChangelogEntries]
	}

	return s.writeJSON(s.changelogPath(), merged)
}

// LoadChangelog returns the changelog, newest first.
func (s *Store) LoadChangelog() ([]compare.ChangelogEntry, error) {
	var entries []compare.ChangelogEntry
	_, err := s.readJSON(s.changelogPath(), &entries)
	return entries, err
}

// SaveNotes replaces the ad-hoc notes document.
func (s *Store) SaveNotes(content string) error {
	return s.writer.Write(s.notesPath(), []byte(content))
}

// LoadNotes returns the notes document, empty if none exists.
func (s *Store) LoadNotes() (string, error) {
	data, err := os.ReadFile(s.notesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read notes: %w", err)
	}
	return string(data), nil
}

// SavePlanning replaces the team/planning document.
func (s *Store) SavePlanning(doc PlanningDocument) error {
	return s.writeJSON(s.planningPath(), doc)
}

// LoadPlanning returns the planning document, empty if none exists.
func (s *Store) LoadPlanning() (PlanningDocument, error) {
	doc := PlanningDocument{Entries: map[string]string{}}
	_, err := s.readJSON(s.planningPath(), &doc)
	return doc, err
}
