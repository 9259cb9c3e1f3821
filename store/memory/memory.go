// Package memory provides an in-process SuspensionStore, suitable for
// tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smallnest/graphflow/store"
)

// MemorySuspensionStore keeps suspensions in a map guarded by a mutex.
type MemorySuspensionStore struct {
	mu          sync.RWMutex
	suspensions map[string]*store.Suspension
	byWorkflow  map[string][]string
}

var _ store.SuspensionStore = (*MemorySuspensionStore)(nil)

// NewMemorySuspensionStore creates an empty in-memory store.
func NewMemorySuspensionStore() *MemorySuspensionStore {
	return &MemorySuspensionStore{
		suspensions: make(map[string]*store.Suspension),
		byWorkflow:  make(map[string][]string),
	}
}

// Save stores a suspension.
func (s *MemorySuspensionStore) Save(_ context.Context, susp *store.Suspension) error {
	if susp == nil || susp.ID == "" {
		return fmt.Errorf("suspension must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suspensions[susp.ID]; !exists {
		s.byWorkflow[susp.WorkflowID] = append(s.byWorkflow[susp.WorkflowID], susp.ID)
	}
	cp := *susp
	s.suspensions[susp.ID] = &cp
	return nil
}

// Load retrieves a suspension by ID.
func (s *MemorySuspensionStore) Load(_ context.Context, id string) (*store.Suspension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	susp, ok := s.suspensions[id]
	if !ok {
		return nil, fmt.Errorf("suspension %s not found", id)
	}
	cp := *susp
	return &cp, nil
}

// List returns the suspensions of a workflow execution, oldest first.
func (s *MemorySuspensionStore) List(_ context.Context, workflowID string) ([]*store.Suspension, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byWorkflow[workflowID]
	out := make([]*store.Suspension, 0, len(ids))
	for _, id := range ids {
		if susp, ok := s.suspensions[id]; ok {
			cp := *susp
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a suspension.
func (s *MemorySuspensionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	susp, ok := s.suspensions[id]
	if !ok {
		return nil
	}
	delete(s.suspensions, id)

	ids := s.byWorkflow[susp.WorkflowID]
	for i, candidate := range ids {
		if candidate == id {
			s.byWorkflow[susp.WorkflowID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all suspensions of a workflow execution.
func (s *MemorySuspensionStore) Clear(_ context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byWorkflow[workflowID] {
		delete(s.suspensions, id)
	}
	delete(s.byWorkflow, workflowID)
	return nil
}
