// Package stages contains flowline's concrete pipeline stages: Transformer
// normalizes decoded messages, Enricher wraps them in an envelope with
// derived metadata, and Exporter writes envelopes to a Sink. Each stage
// embeds pipeline.Stage and supplies only its own transform; the handoff,
// timing, and event machinery is shared.
package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/vnykmshr/flowline/pkg/ingress"
	"github.com/vnykmshr/flowline/pkg/pipeline"
)

// Stage names used in monitor keys.
const (
	TransformerName = "Transformer"
	EnricherName    = "Enricher"
	ExporterName    = "Exporter"
)

// Transformer validates and normalizes decoded messages: it requires an id
// and a type, trims and lower-cases the type, and leaves the input message
// untouched.
type Transformer struct {
	*pipeline.Stage[ingress.Message, ingress.Message]
}

// NewTransformer creates a transformer stage.
func NewTransformer() *Transformer {
	t := &Transformer{}
	t.Stage = pipeline.NewStage(TransformerName, t.execute)
	return t
}

func (t *Transformer) execute(_ context.Context, msg ingress.Message) (ingress.Message, error) {
	if _, ok := msg["id"]; !ok {
		return nil, pipeline.WithKind(pipeline.KindValidation, errors.New("message has no id"))
	}
	typ, ok := msg["type"].(string)
	if !ok || strings.TrimSpace(typ) == "" {
		return nil, pipeline.WithKind(pipeline.KindValidation, errors.New("message has no type"))
	}

	out := make(ingress.Message, len(msg))
	for k, v := range msg {
		out[k] = v
	}
	out["type"] = strings.ToLower(strings.TrimSpace(typ))
	return out, nil
}
