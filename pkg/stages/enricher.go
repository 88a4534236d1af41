package stages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vnykmshr/flowline/internal/config"
	"github.com/vnykmshr/flowline/pkg/ingress"
	"github.com/vnykmshr/flowline/pkg/pipeline"
)

// Envelope is the enriched form of a message: the original payload plus
// derived metadata stamped on its way through the pipeline.
type Envelope struct {
	ID          string          `json:"id"`
	Mode        string          `json:"mode"`
	MessageType string          `json:"message_type"`
	Fields      int             `json:"fields"`
	IngestedAt  time.Time       `json:"ingested_at"`
	Payload     ingress.Message `json:"payload"`
}

// Enricher wraps each normalized message in an Envelope with a fresh ID and
// ingestion metadata.
type Enricher struct {
	*pipeline.Stage[ingress.Message, Envelope]

	env config.Environment
	now func() time.Time
}

// NewEnricher creates an enricher stage.
func NewEnricher(env config.Environment) *Enricher {
	e := &Enricher{env: env, now: time.Now}
	e.Stage = pipeline.NewStage(EnricherName, e.execute)
	return e
}

func (e *Enricher) execute(_ context.Context, msg ingress.Message) (Envelope, error) {
	typ, _ := msg["type"].(string)
	return Envelope{
		ID:          uuid.NewString(),
		Mode:        string(e.env.Mode),
		MessageType: typ,
		Fields:      len(msg),
		IngestedAt:  e.now().UTC(),
		Payload:     msg,
	}, nil
}
