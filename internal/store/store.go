// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/statehub/internal/model"
	"github.com/vyrodovalexey/statehub/pkg/statemut"
)

// Store errors.
var (
	ErrNotFound      = errors.New("state not found")
	ErrAlreadyExists = errors.New("state with this name already exists")
	ErrInvalidID     = errors.New("invalid state ID")
	ErrNilState      = errors.New("state cannot be nil")
	ErrStoreFull     = errors.New("state limit reached")
)

// OpCreate is the operation recorded on the event for a new container.
const OpCreate = "create"

// Watcher receives every change in commit order. It runs with the store
// lock held and must not block.
type Watcher func(event model.StateEvent)

// MutateFunc computes a replacement for a container value. It calls set with
// the new value to commit it; returning without calling set leaves the
// container unchanged.
type MutateFunc func(current any, set statemut.Setter[any]) error

// Store defines the interface for state container storage.
type Store interface {
	// List returns all state containers.
	List(ctx context.Context) ([]model.State, error)

	// Get retrieves a state container by its ID.
	Get(ctx context.Context, id string) (*model.State, error)

	// Create adds a new state container and returns it with a generated ID.
	Create(ctx context.Context, state *model.State) (*model.State, error)

	// Delete removes a state container by its ID.
	Delete(ctx context.Context, id string) error

	// Mutate runs fn against the current value of a container and commits
	// whatever fn passes to its setter. Mutations of one container are
	// serialized. op names the operation on the committed event.
	Mutate(ctx context.Context, id, op string, fn MutateFunc) (*model.State, error)

	// Watch registers w for create, commit and delete events. Events reach
	// watchers in version order.
	Watch(w Watcher)
}
