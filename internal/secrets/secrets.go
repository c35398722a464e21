// Package secrets defines the credential store contract: an opaque string
// saved, fetched and deleted by purpose. The default implementation keeps one
// restricted file per purpose under the data directory.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PurposeAPIToken is the purpose under which the Jira API token is stored.
const PurposeAPIToken = "jira-api-token"

// ErrNotFound reports a purpose with no stored secret.
var ErrNotFound = errors.New("no secret stored for purpose")

// Store is the credential store contract.
type Store interface {
	Save(purpose, secret string) error
	Get(purpose string) (string, error)
	Delete(purpose string) error
}

// FileStore keeps each secret in its own 0600 file named after the purpose.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed secret store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(purpose string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, purpose)
	return filepath.Join(s.dir, safe)
}

// Save stores the secret for the given purpose.
func (s *FileStore) Save(purpose, secret string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(s.path(purpose), []byte(secret), 0o600); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	return nil
}

// Get returns the stored secret, or ErrNotFound.
func (s *FileStore) Get(purpose string) (string, error) {
	data, err := os.ReadFile(s.path(purpose))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, purpose)
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Delete removes the stored secret; deleting a missing secret is not an error.
func (s *FileStore) Delete(purpose string) error {
	if err := os.Remove(s.path(purpose)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
