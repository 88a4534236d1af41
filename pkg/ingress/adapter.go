// Package ingress bridges an external pub/sub transport into the pipeline.
//
// The Adapter is a stage whose input is the raw transport payload and whose
// output is the decoded Message. It owns the only background goroutine in
// the system: a receive loop that pulls one payload at a time and drives it
// through the whole downstream chain before pulling the next, which is what
// gives the pipeline its per-message ordering guarantee.
package ingress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/pkg/metrics"
	"github.com/vnykmshr/flowline/pkg/pipeline"
)

// StageName is the adapter's identity in monitor keys and logs.
const StageName = "IngressAdapter"

// receiveBackoff spaces out retries after a transport receive error so a
// broken connection does not spin the loop.
const receiveBackoff = 250 * time.Millisecond

// Adapter is the entry-point stage: it receives raw payloads from the
// transport, decodes them, and feeds the result to the first downstream
// stage via the standard handoff machinery.
type Adapter struct {
	*pipeline.Stage[[]byte, Message]

	transport Transport
	log       zerolog.Logger
	prom      *metrics.Registry

	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewAdapter creates an ingress adapter reading from transport. prom may be
// nil to disable Prometheus instrumentation.
func NewAdapter(transport Transport, log zerolog.Logger, prom *metrics.Registry) *Adapter {
	a := &Adapter{
		transport: transport,
		log:       log.With().Str("component", "ingress").Logger(),
		prom:      prom,
	}
	a.Stage = pipeline.NewStage(StageName, a.execute)
	return a
}

// execute is the decode step, isolated so it is testable without a live
// transport.
func (a *Adapter) execute(_ context.Context, raw []byte) (Message, error) {
	return Decode(raw)
}

// Initialize connects the transport and starts the detached receive loop.
// A connection failure is fatal to startup and surfaced to the caller. On a
// running adapter it returns ErrAlreadyRunning without touching the
// transport, so a misuse error cannot disturb the active receive loop.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.Running() {
		return fmt.Errorf("%s: %w", StageName, pipeline.ErrAlreadyRunning)
	}
	if err := a.transport.Connect(ctx); err != nil {
		return err
	}
	if err := a.Stage.Initialize(ctx); err != nil {
		_ = a.transport.Close()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(loopCtx)

	a.log.Info().Msg("ingress adapter started")
	return nil
}

// run is the receive loop. A payload that fails mid-pipeline is logged and
// the loop moves on; only shutdown stops it. The running flag is observed
// between messages, so an in-flight traversal always finishes first.
func (a *Adapter) run(ctx context.Context) {
	defer close(a.done)

	for a.Running() {
		payload, err := a.transport.Receive(ctx)
		if err != nil {
			if !a.Running() || ctx.Err() != nil {
				return
			}
			a.log.Error().Err(err).Msg("transport receive failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveBackoff):
			}
			continue
		}

		if a.prom != nil {
			a.prom.MessagesReceived.Inc()
		}
		if err := a.Handle(ctx, payload); err != nil {
			a.log.Warn().Err(err).Msg("message processing failed")
		}
	}
}

// Shutdown stops the loop, closes the transport, and waits for the loop to
// exit. Idempotent, and safe to call even if Initialize never ran or while
// the loop is blocked awaiting a message.
func (a *Adapter) Shutdown(ctx context.Context) error {
	if err := a.Stage.Shutdown(ctx); err != nil {
		return err
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.closeOnce.Do(func() {
		a.closeErr = a.transport.Close()
	})
	if a.done != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return a.closeErr
}
