package pipeline

import "errors"

// Common error values and kinds used across flowline stages

var (
	// ErrAlreadyRunning indicates Initialize was called on a running stage.
	ErrAlreadyRunning = errors.New("stage already running")

	// ErrNotRunning indicates Handle was called outside the running state.
	ErrNotRunning = errors.New("stage not running")
)

// Error kinds reported in monitor error accounting.
const (
	// KindDecode labels a malformed ingress payload.
	KindDecode = "DecodeError"

	// KindValidation labels a message that failed stage validation.
	KindValidation = "ValidationError"

	// KindExport labels a failure writing to the export sink.
	KindExport = "ExportError"

	// KindInternal labels failures with no more specific classification.
	KindInternal = "InternalError"
)

// KindError attaches a stable kind label to an underlying error so the
// monitor can classify failures without string-matching error text.
type KindError struct {
	Kind string
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Kind
	}
	return e.Kind + ": " + e.Err.Error()
}

func (e *KindError) Unwrap() error { return e.Err }

// WithKind wraps err with a kind label.
func WithKind(kind string, err error) error {
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the kind label from err, or KindInternal if it carries none.
func KindOf(err error) string {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindInternal
}
