package memory

import (
	"context"
	"sort"
	"sync"

	"pricecube/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*storage.Run // keyed by run ID
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*storage.Run),
	}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Save stores a copy of run. Returns ErrDuplicateKey if the ID exists.
func (s *RunStore) Save(_ context.Context, run *storage.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.ID] = run.Clone()
	return nil
}

// Get retrieves a copy of a run by ID. Returns ErrNotFound if not exists.
func (s *RunStore) Get(_ context.Context, id string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return run.Clone(), nil
}

// List returns every run summary, newest first.
func (s *RunStore) List(_ context.Context) ([]storage.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.RunSummary, 0, len(s.data))
	for _, run := range s.data {
		result = append(result, run.Summary())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Latest returns a copy of the newest run. Returns ErrNotFound if empty.
func (s *RunStore) Latest(ctx context.Context) (*storage.Run, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	return s.Get(ctx, summaries[0].ID)
}
