package stages

import (
	"context"

	"github.com/vnykmshr/flowline/pkg/pipeline"
)

// Exporter is the terminal stage: it writes each envelope to its Sink and
// outputs a completion indicator. The orchestrator wires that output to the
// monitor's pipeline-completion accounting.
type Exporter struct {
	*pipeline.Stage[Envelope, bool]

	sink Sink
}

// NewExporter creates an exporter stage writing to sink.
func NewExporter(sink Sink) *Exporter {
	x := &Exporter{sink: sink}
	x.Stage = pipeline.NewStage(ExporterName, x.execute)
	return x
}

func (x *Exporter) execute(ctx context.Context, env Envelope) (bool, error) {
	accepted, err := x.sink.Store(ctx, env)
	if err != nil {
		return false, pipeline.WithKind(pipeline.KindExport, err)
	}
	return accepted, nil
}

// Shutdown stops the stage and releases the sink.
func (x *Exporter) Shutdown(ctx context.Context) error {
	if err := x.Stage.Shutdown(ctx); err != nil {
		return err
	}
	return x.sink.Close()
}
