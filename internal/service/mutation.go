package service

import (
	"context"
	"sync"
)

// MutationStatus is the lifecycle state of a write operation.
type MutationStatus string

const (
	MutationIdle    MutationStatus = "idle"
	MutationPending MutationStatus = "pending"
	MutationSuccess MutationStatus = "success"
	MutationError   MutationStatus = "error"
)

// MutationHooks react to the outcome of a mutation run.
type MutationHooks[In, Out any] struct {
	OnSuccess func(ctx context.Context, in In, out Out)
	OnError   func(ctx context.Context, in In, err error)
}

// Mutation wraps a write operation and tracks its last outcome. One mutation holds a single
// pending slot: concurrent runs serialise so callers observe them in order.
type Mutation[In, Out any] struct {
	run   func(ctx context.Context, in In) (Out, error)
	hooks MutationHooks[In, Out]

	slot   sync.Mutex
	mu     sync.RWMutex
	status MutationStatus
	data   Out
	err    error
}

// NewMutation constructs an idle mutation.
func NewMutation[In, Out any](run func(ctx context.Context, in In) (Out, error), hooks MutationHooks[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{run: run, hooks: hooks, status: MutationIdle}
}

// Run executes the mutation. Errors are recorded in the mutation state, passed to OnError
// and returned so callers can stop their own flow.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.slot.Lock()
	defer m.slot.Unlock()

	m.set(MutationPending, *new(Out), nil)

	out, err := m.run(ctx, in)
	if err != nil {
		var zero Out
		m.set(MutationError, zero, err)
		if m.hooks.OnError != nil {
			m.hooks.OnError(ctx, in, err)
		}
		return zero, err
	}

	m.set(MutationSuccess, out, nil)
	if m.hooks.OnSuccess != nil {
		m.hooks.OnSuccess(ctx, in, out)
	}
	return out, nil
}

func (m *Mutation[In, Out]) set(status MutationStatus, data Out, err error) {
	m.mu.Lock()
	m.status = status
	m.data = data
	m.err = err
	m.mu.Unlock()
}

func (m *Mutation[In, Out]) Status() MutationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Mutation[In, Out]) IsPending() bool {
	return m.Status() == MutationPending
}

func (m *Mutation[In, Out]) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Data returns the result of the last successful run.
func (m *Mutation[In, Out]) Data() Out {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Reset returns the mutation to idle.
func (m *Mutation[In, Out]) Reset() {
	var zero Out
	m.set(MutationIdle, zero, nil)
}
