package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath indicates a report name that resolves outside the reports
// directory. It is returned before any file access happens.
var ErrUnsafePath = errors.New("report path escapes the reports directory")

const reportExtension = ".md"

// reportNameReplacer strips characters that are path separators or otherwise
// unsafe in filenames.
var reportNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// sanitizeReportName normalizes a report name to a safe filename with the
// report extension enforced.
func sanitizeReportName(name string) string {
	sanitized := reportNameReplacer.Replace(strings.TrimSpace(name))
	if !strings.HasSuffix(sanitized, reportExtension) {
		sanitized += reportExtension
	}
	return sanitized
}

// reportPath resolves a report name inside the reports directory, rejecting
// anything that would escape it.
func (s *Store) reportPath(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrUnsafePath
	}

	path := filepath.Join(s.ReportsRoot(), sanitizeReportName(name))

	rel, err := filepath.Rel(s.ReportsRoot(), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}

	return path, nil
}

// SaveReport writes a report under a sanitized filename.
func (s *Store) SaveReport(name, content string) error {
	path, err := s.reportPath(name)
	if err != nil {
		return err
	}
	return s.writer.Write(path, []byte(content))
}

// LoadReport reads a report by name.
func (s *Store) LoadReport(name string) (string, error) {
	path, err := s.reportPath(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report %s: %w", name, err)
	}
	return string(data), nil
}

// DeleteReport removes a report by name; deleting a missing report is not an
// error.
func (s *Store) DeleteReport(name string) error {
	path, err := s.reportPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete report %s: %w", name, err)
	}
	return nil
}

// ListReports returns the stored report filenames.
func (s *Store) ListReports() ([]string, error) {
	entries, err := os.ReadDir(s.ReportsRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var reports []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), reportExtension) {
			reports = append(reports, entry.Name())
		}
	}
	return reports, nil
}
