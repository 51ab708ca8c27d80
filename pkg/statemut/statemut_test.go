package statemut

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recorder captures setter invocations.
type recorder[T any] struct {
	calls int
	last  T
}

func (r *recorder[T]) set(v T) {
	r.calls++
	r.last = v
}

// observed returns an option routing diagnostics to an in-memory log.
func observed(t *testing.T) (Option, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return WithLogger(zap.New(core)), logs
}
