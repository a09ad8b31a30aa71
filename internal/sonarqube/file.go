package sonarqube

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// issuesFile is the on-disk shape read by the loader.
type issuesFile struct {
	Issues []Issue `json:"issues"`
}

// WriteIssuesFile writes issues as {"issues": [...]} to path, creating the
// parent directory when needed. The file is written to a temporary name
// first and renamed, so a failed fetch never leaves a truncated list behind.
func WriteIssuesFile(path string, issues []Issue) error {
	if issues == nil {
		issues = []Issue{}
	}

	data, err := json.MarshalIndent(issuesFile{Issues: issues}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode issues: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".issues-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write issues: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write issues: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
