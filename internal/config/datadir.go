package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dataDirName is the subdirectory within the user's data directory where
	// all jiratrack state (settings, batches, snapshots, reports) lives.
	dataDirName = "jiratrack"
)

// DataDir returns the root data directory for jiratrack storage.
func DataDir() (string, error) {
	var dataDir string

	// Try XDG_DATA_HOME first, then fallback to ~/.local/share
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		dataDir = xdgDataHome
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot obtain user home dir: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, dataDirName), nil
}
