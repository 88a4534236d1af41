package ingress

import (
	"encoding/json"
	"errors"

	"github.com/vnykmshr/flowline/pkg/pipeline"
)

// Message is a decoded ingress payload: a structured key/value document.
type Message map[string]any

// Decode parses a raw transport payload into a Message. Malformed payloads
// fail with a DecodeError kind so the monitor can account for them
// separately from downstream stage failures.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, pipeline.WithKind(pipeline.KindDecode, err)
	}
	if m == nil {
		return nil, pipeline.WithKind(pipeline.KindDecode, errors.New("payload is not a key/value document"))
	}
	return m, nil
}
