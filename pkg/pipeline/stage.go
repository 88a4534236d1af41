package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Stage provides the shared lifecycle and handoff machinery for one unit of
// the pipeline. It is generic over the stage's input and output types;
// concrete stages embed *Stage and supply their transform at construction.
//
// Callback registration is part of pipeline assembly and must finish before
// Initialize is called; Handle may then be invoked from a single goroutine
// at a time (messages traverse the chain one at a time, see package docs).
type Stage[I, O any] struct {
	name    string
	exec    func(ctx context.Context, in I) (O, error)
	handled []Handler[O]
	success []func(SuccessEvent)
	failure []func(ErrorEvent)
	running atomic.Bool
}

// NewStage creates a stage with the given name and transform. The name is
// the stage's identity in monitor keys ("name.handle") and logs.
func NewStage[I, O any](name string, exec func(ctx context.Context, in I) (O, error)) *Stage[I, O] {
	return &Stage[I, O]{name: name, exec: exec}
}

// Name returns the stage's identity.
func (s *Stage[I, O]) Name() string { return s.name }

// Running reports whether the stage is in the running state.
func (s *Stage[I, O]) Running() bool { return s.running.Load() }

// Initialize transitions the stage into the running state. Stages that
// acquire resources shadow this method and call it once acquisition
// succeeds.
func (s *Stage[I, O]) Initialize(_ context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", s.name, ErrAlreadyRunning)
	}
	return nil
}

// Shutdown leaves the running state. Idempotent; a stage that was never
// initialized simply stays stopped.
func (s *Stage[I, O]) Shutdown(_ context.Context) error {
	s.running.Store(false)
	return nil
}

// OnHandled registers a forwarding callback invoked with the stage's
// output. Callbacks run in registration order; there is no de-duplication.
func (s *Stage[I, O]) OnHandled(cb Handler[O]) {
	s.handled = append(s.handled, cb)
}

// OnSuccess registers a callback for the stage's success events.
func (s *Stage[I, O]) OnSuccess(cb func(SuccessEvent)) {
	s.success = append(s.success, cb)
}

// OnError registers a callback for the stage's error events.
func (s *Stage[I, O]) OnError(cb func(ErrorEvent)) {
	s.failure = append(s.failure, cb)
}

// Handle runs the stage's transform on in, timing it. On success it emits
// one SuccessEvent and then forwards the result to every handled callback
// in registration order, each run to completion before the next. On failure
// it emits one ErrorEvent and returns the error; no handled or success
// callback fires, which ends the message's traversal at this stage.
//
// Errors returned by a handled callback (typically a downstream Handle)
// are not caught here; they propagate to the caller untouched.
func (s *Stage[I, O]) Handle(ctx context.Context, in I) error {
	if !s.running.Load() {
		return fmt.Errorf("%s: %w", s.name, ErrNotRunning)
	}

	start := time.Now()
	out, err := s.exec(ctx, in)
	elapsed := time.Since(start)

	if err != nil {
		ev := ErrorEvent{Stage: s.name, Operation: OpHandle, Kind: KindOf(err)}
		for _, cb := range s.failure {
			cb(ev)
		}
		return fmt.Errorf("%s %s: %w", s.name, OpHandle, err)
	}

	ev := SuccessEvent{Stage: s.name, Operation: OpHandle, Duration: elapsed}
	for _, cb := range s.success {
		cb(ev)
	}
	for _, cb := range s.handled {
		if err := cb(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// Connect wires next as the downstream of prev: next.Handle becomes a
// handled callback of prev. Calling Connect for each adjacent pair yields a
// linear chain where stage i's output feeds exactly stage i+1's input.
func Connect[I, M, O any](prev *Stage[I, M], next *Stage[M, O]) {
	prev.OnHandled(next.Handle)
}
