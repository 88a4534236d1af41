package pipeline

import (
	"context"
	"time"
)

// OpHandle is the operation name stamped on every stage event.
const OpHandle = "handle"

// SuccessEvent is emitted once per successful Handle invocation.
type SuccessEvent struct {
	// Stage is the emitting stage's name.
	Stage string

	// Operation is the stage operation, always OpHandle.
	Operation string

	// Duration is how long the stage's transform took.
	Duration time.Duration
}

// ErrorEvent is emitted once per failed Handle invocation.
type ErrorEvent struct {
	// Stage is the emitting stage's name.
	Stage string

	// Operation is the stage operation, always OpHandle.
	Operation string

	// Kind is a stable label classifying the failure (see KindOf).
	Kind string
}

// Key returns the monitor accounting key, "stage.operation".
func (e SuccessEvent) Key() string { return e.Stage + "." + e.Operation }

// Key returns the monitor accounting key, "stage.operation".
func (e ErrorEvent) Key() string { return e.Stage + "." + e.Operation }

// Handler is a handled callback: a forwarding function invoked with a
// stage's successful output. Returning an error aborts the message's
// traversal and surfaces to the caller of the emitting stage's Handle.
type Handler[O any] func(ctx context.Context, out O) error

// Lifecycle is the type-erased stage contract the orchestrator drives.
type Lifecycle interface {
	// Name returns the stage's identity used in monitor keys and logs.
	Name() string

	// Initialize transitions the stage into the running state, acquiring
	// any resources it needs. Called exactly once, before any Handle.
	Initialize(ctx context.Context) error

	// Shutdown releases resources and leaves the running state. Idempotent
	// and safe to call even if Initialize never ran.
	Shutdown(ctx context.Context) error
}

// Observable is implemented by stages that emit monitor events.
type Observable interface {
	OnSuccess(func(SuccessEvent))
	OnError(func(ErrorEvent))
}
