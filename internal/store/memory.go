package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/statehub/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu        sync.RWMutex
	states    map[string]model.State
	maxStates int
	watchers  []Watcher
}

// NewMemoryStore creates a new MemoryStore instance. maxStates bounds the
// number of containers; zero or less means unbounded.
func NewMemoryStore(maxStates int) *MemoryStore {
	return &MemoryStore{
		states:    make(map[string]model.State),
		maxStates: maxStates,
	}
}

// List returns all state containers ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]model.State, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list states: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]model.State, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, state)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.Before(states[j].CreatedAt)
	})

	return states, nil
}

// Get retrieves a state container by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.State, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get state: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.states[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &state, nil
}

// Create adds a new state container and returns it with a generated ID.
func (s *MemoryStore) Create(ctx context.Context, state *model.State) (*model.State, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create state: %w", ctx.Err())
	default:
	}

	if state == nil {
		return nil, fmt.Errorf("create state: %w", ErrNilState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxStates > 0 && len(s.states) >= s.maxStates {
		return nil, ErrStoreFull
	}

	for _, existing := range s.states {
		if existing.Name == state.Name {
			return nil, ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	newState := model.State{
		ID:        uuid.New().String(),
		Name:      state.Name,
		Kind:      state.Kind,
		Value:     state.Value,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.states[newState.ID] = newState
	s.notify(model.NewCommittedEvent(&newState, OpCreate))

	return &newState, nil
}

// Delete removes a state container by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete state: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.states[id]; !exists {
		return ErrNotFound
	}

	delete(s.states, id)
	s.notify(model.NewDeletedEvent(id))

	return nil
}

// Mutate runs fn under the write lock so that the value fn reads is the
// value its commit replaces. A commit bumps the version and is announced to
// watchers before the lock is released.
func (s *MemoryStore) Mutate(ctx context.Context, id, op string, fn MutateFunc) (*model.State, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("mutate state: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.states[id]
	if !exists {
		return nil, ErrNotFound
	}

	var (
		next      any
		committed bool
	)
	if err := fn(state.Value, func(v any) {
		next = v
		committed = true
	}); err != nil {
		return nil, err
	}

	if committed {
		state.Value = next
		state.Version++
		state.UpdatedAt = time.Now().UTC()
		s.states[id] = state
		s.notify(model.NewCommittedEvent(&state, op))
	}

	return &state, nil
}

// Watch registers w for all later changes.
func (s *MemoryStore) Watch(w Watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers = append(s.watchers, w)
}

// notify must be called with s.mu held for writing.
func (s *MemoryStore) notify(event model.StateEvent) {
	for _, w := range s.watchers {
		w(event)
	}
}
