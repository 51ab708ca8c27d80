// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
)

// Validation errors for state containers.
var (
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrNameTooLong   = errors.New("name cannot exceed 255 characters")
	ErrInvalidKind   = errors.New("kind must be one of: array, object")
	ErrValueMismatch = errors.New("value does not match kind")
	ErrEmptyKey      = errors.New("property key cannot be empty")
)

// Validation constants.
const (
	MaxNameLength = 255
)

// Kind is the shape of a state container.
type Kind string

// Supported state container kinds.
const (
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k == KindArray || k == KindObject
}

// State is a named container whose value is replaced wholesale on every
// committed mutation.
type State struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Value     any       `json:"value"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateStateRequest is the body of a create request. A missing value
// starts the container empty.
type CreateStateRequest struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Value any    `json:"value,omitempty"`
}

// Validate checks the request and fills in an empty initial value.
func (r *CreateStateRequest) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}

	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	if !r.Kind.Valid() {
		return ErrInvalidKind
	}

	switch r.Kind {
	case KindArray:
		if r.Value == nil {
			r.Value = []any{}
		}
		if _, ok := r.Value.([]any); !ok {
			return ErrValueMismatch
		}
	case KindObject:
		if r.Value == nil {
			r.Value = map[string]any{}
		}
		if _, ok := r.Value.(map[string]any); !ok {
			return ErrValueMismatch
		}
	}

	return nil
}

// AddItemRequest is the body of an add-item request.
type AddItemRequest struct {
	Item any `json:"item"`
}

// DeleteItemRequest is the body of a delete-item request.
type DeleteItemRequest struct {
	Item      any  `json:"item"`
	RemoveAll bool `json:"remove_all,omitempty"`
}

// SetPropertyRequest is the body of a set-property request.
type SetPropertyRequest struct {
	Value any `json:"value"`
}

// IncrementRequest is the body of an increment request. A missing amount
// means one.
type IncrementRequest struct {
	Amount any `json:"amount,omitempty"`
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
