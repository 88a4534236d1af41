// Package orchestrator assembles the flowline pipeline: it owns the stage
// chain, wires each stage's output to the next stage's input, subscribes
// the monitor to every stage, and sequences initialization and shutdown.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/internal/config"
	"github.com/vnykmshr/flowline/pkg/ingress"
	"github.com/vnykmshr/flowline/pkg/metrics"
	"github.com/vnykmshr/flowline/pkg/pipeline"
	"github.com/vnykmshr/flowline/pkg/stages"
)

// ErrAlreadyInitialized indicates Initialize was called twice.
var ErrAlreadyInitialized = errors.New("orchestrator already initialized")

// Orchestrator owns the pipeline: ingress -> transformer -> enricher ->
// exporter, observed by a single Monitor. The chain order is fixed at
// construction; there is no runtime reconfiguration.
type Orchestrator struct {
	env config.Environment
	log zerolog.Logger
	mon *pipeline.Monitor

	adapter     *ingress.Adapter
	transformer *stages.Transformer
	enricher    *stages.Enricher
	exporter    *stages.Exporter

	// order is the pipeline order, used for initialize/shutdown sequencing
	// and monitor wiring.
	order []pipeline.Lifecycle

	reporter    *cron.Cron
	wired       bool
	initialized bool
}

// New constructs the orchestrator and its stage chain. transport feeds the
// ingress adapter, sink receives the terminal stage's output, and prom (may
// be nil) mirrors monitor events into Prometheus.
func New(env config.Environment, log zerolog.Logger, transport ingress.Transport, sink stages.Sink, prom *metrics.Registry) *Orchestrator {
	o := &Orchestrator{
		env: env,
		log: log.With().Str("component", "orchestrator").Logger(),
		mon: pipeline.NewMonitor(log, prom),

		adapter:     ingress.NewAdapter(transport, log, prom),
		transformer: stages.NewTransformer(),
		enricher:    stages.NewEnricher(env),
		exporter:    stages.NewExporter(sink),
	}
	o.order = []pipeline.Lifecycle{o.adapter, o.transformer, o.enricher, o.exporter}
	return o
}

// Initialize wires the pipeline, the monitoring hooks, and the completion
// counter, then initializes every stage in pipeline order. A failure in any
// stage's Initialize aborts the sequence: earlier stages stay initialized,
// later stages are never touched, and the error is surfaced to the caller.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if o.initialized {
		return ErrAlreadyInitialized
	}

	if !o.wired {
		o.wirePipeline()
		o.wireMonitoring()
		o.wired = true
	}

	reporter, err := o.newReporter()
	if err != nil {
		return err
	}

	if err := initializeStages(ctx, o.log, o.order); err != nil {
		return err
	}

	o.reporter = reporter
	o.reporter.Start()
	o.initialized = true
	o.log.Info().
		Str("mode", string(o.env.Mode)).
		Str("transport", o.env.TransportAddr()).
		Msg("pipeline initialized")
	return nil
}

// wirePipeline connects each adjacent pair of stages: stage i's handled
// output feeds exactly stage i+1's handle input, a linear chain with no
// branching.
func (o *Orchestrator) wirePipeline() {
	pipeline.Connect(o.adapter.Stage, o.transformer.Stage)
	pipeline.Connect(o.transformer.Stage, o.enricher.Stage)
	pipeline.Connect(o.enricher.Stage, o.exporter.Stage)
}

// wireMonitoring subscribes the monitor to every stage and registers the
// pipeline-completion counter on the terminal stage's output.
func (o *Orchestrator) wireMonitoring() {
	for _, st := range o.order {
		obs := st.(pipeline.Observable)
		obs.OnSuccess(o.mon.OnSuccess)
		obs.OnError(o.mon.OnError)
	}
	o.exporter.OnHandled(func(_ context.Context, ok bool) error {
		o.mon.OnPipelineComplete(ok)
		return nil
	})
}

// newReporter builds the periodic snapshot reporter from the configured
// schedule. Built before any stage starts so a bad schedule fails fast.
func (o *Orchestrator) newReporter() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(o.env.SnapshotSchedule, func() {
		o.log.Info().Interface("metrics", o.mon.Metrics()).Msg("metrics snapshot")
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot schedule %q: %w", o.env.SnapshotSchedule, err)
	}
	return c, nil
}

// initializeStages starts stages in pipeline order, failing fast on the
// first error.
func initializeStages(ctx context.Context, log zerolog.Logger, order []pipeline.Lifecycle) error {
	for _, st := range order {
		if err := st.Initialize(ctx); err != nil {
			log.Error().Err(err).Str("stage", st.Name()).Msg("stage initialization failed")
			return fmt.Errorf("initialize %s: %w", st.Name(), err)
		}
		log.Debug().Str("stage", st.Name()).Msg("stage initialized")
	}
	return nil
}

// Shutdown logs a final metrics snapshot and shuts stages down in pipeline
// order. Shutdown is best-effort: a failing stage does not stop the rest
// from being attempted; all failures are collected and returned.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.log.Info().Interface("metrics", o.mon.Metrics()).Msg("final metrics snapshot")
	if o.reporter != nil {
		o.reporter.Stop()
	}

	var errs []error
	for _, st := range o.order {
		if err := st.Shutdown(ctx); err != nil {
			o.log.Error().Err(err).Str("stage", st.Name()).Msg("stage shutdown failed")
			errs = append(errs, fmt.Errorf("shutdown %s: %w", st.Name(), err))
		}
	}
	o.initialized = false
	return errors.Join(errs...)
}

// Monitor exposes the pipeline monitor for metric snapshots.
func (o *Orchestrator) Monitor() *pipeline.Monitor { return o.mon }

// Inject feeds a raw payload directly into the head of the pipeline,
// bypassing the transport. Useful for replay and testing.
func (o *Orchestrator) Inject(ctx context.Context, payload []byte) error {
	return o.adapter.Handle(ctx, payload)
}
