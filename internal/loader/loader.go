package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/nao1215/sonarreport/internal/model"
)

// Source produces an ordered issue sequence.
type Source interface {
	// Load returns the issues in source order. The returned slice never
	// contains nil entries.
	Load(ctx context.Context) ([]*model.Issue, error)

	// Name identifies the source in logs and error messages.
	Name() string
}

// document is the expected top-level shape of an issue list.
type document struct {
	Issues []json.RawMessage `json:"issues"`
}

// FileSource loads issues from a JSON file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a Source reading the JSON file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

// Load reads and decodes the file.
// A missing file yields ErrSourceNotFound; a file that is not an issue list
// yields ErrSourceMalformed.
func (s *FileSource) Load(ctx context.Context) ([]*model.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path) //nolint:gosec // path is derived from the project identifier
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read issue source %s: %w", s.path, err)
	}

	issues, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return issues, nil
}

// Decode parses an issue list from r.
//
// A missing or null "issues" field yields an empty, non-nil slice. Records
// that are not JSON objects and fields of the wrong JSON type yield
// ErrSourceMalformed.
func Decode(r io.Reader) ([]*model.Issue, error) {
	dec := json.NewDecoder(r)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}

	// Anything but whitespace after the document is malformed.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after issue document", ErrSourceMalformed)
	}

	if !isObject(raw) {
		return nil, fmt.Errorf("%w: top level is not an object", ErrSourceMalformed)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceMalformed, err)
	}

	issues := make([]*model.Issue, 0, len(doc.Issues))
	for i, raw := range doc.Issues {
		issue, err := decodeIssue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: issue %d: %v", ErrSourceMalformed, i, err)
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// decodeIssue decodes one record, rejecting anything but a JSON object.
func decodeIssue(raw json.RawMessage) (*model.Issue, error) {
	if !isObject(raw) {
		return nil, errors.New("record is not an object")
	}

	var issue model.Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// isObject reports whether raw holds a JSON object.
func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
