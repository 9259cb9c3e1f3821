// Package file provides a SuspensionStore backed by JSON files on disk,
// one file per suspension.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smallnest/graphflow/store"
)

// FileSuspensionStore persists each suspension as <dir>/<id>.json.
type FileSuspensionStore struct {
	dir string
}

var _ store.SuspensionStore = (*FileSuspensionStore)(nil)

// NewFileSuspensionStore creates the directory if needed and returns a
// store over it.
func NewFileSuspensionStore(dir string) (*FileSuspensionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating suspension directory: %w", err)
	}
	return &FileSuspensionStore{dir: dir}, nil
}

func (s *FileSuspensionStore) path(id string) string {
	return filepath.Join(s.dir, sanitize(id)+".json")
}

// sanitize keeps ids filesystem-safe.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, id)
}

// Save writes the suspension to its file atomically (write then rename).
func (s *FileSuspensionStore) Save(_ context.Context, susp *store.Suspension) error {
	if susp == nil || susp.ID == "" {
		return fmt.Errorf("suspension must have an ID")
	}
	data, err := json.MarshalIndent(susp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding suspension: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".susp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing suspension: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(susp.ID))
}

// Load reads a suspension by ID.
func (s *FileSuspensionStore) Load(_ context.Context, id string) (*store.Suspension, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("suspension %s not found", id)
		}
		return nil, fmt.Errorf("reading suspension: %w", err)
	}
	var susp store.Suspension
	if err := json.Unmarshal(data, &susp); err != nil {
		return nil, fmt.Errorf("decoding suspension %s: %w", id, err)
	}
	return &susp, nil
}

// List scans the directory for suspensions of the given workflow, oldest
// first.
func (s *FileSuspensionStore) List(_ context.Context, workflowID string) ([]*store.Suspension, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading suspension directory: %w", err)
	}

	var out []*store.Suspension
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var susp store.Suspension
		if err := json.Unmarshal(data, &susp); err != nil {
			continue
		}
		if susp.WorkflowID == workflowID {
			out = append(out, &susp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a suspension file. Deleting a missing ID is not an error.
func (s *FileSuspensionStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting suspension %s: %w", id, err)
	}
	return nil
}

// Clear removes all suspensions of a workflow execution.
func (s *FileSuspensionStore) Clear(ctx context.Context, workflowID string) error {
	suspensions, err := s.List(ctx, workflowID)
	if err != nil {
		return err
	}
	for _, susp := range suspensions {
		if err := s.Delete(ctx, susp.ID); err != nil {
			return err
		}
	}
	return nil
}
