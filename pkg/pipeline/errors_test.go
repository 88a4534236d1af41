package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vnykmshr/flowline/internal/testutil"
)

func TestKindOf(t *testing.T) {
	base := errors.New("underlying")

	testutil.AssertEqual(t, KindOf(base), KindInternal)
	testutil.AssertEqual(t, KindOf(WithKind(KindDecode, base)), KindDecode)

	// The kind survives further wrapping.
	wrapped := fmt.Errorf("handle: %w", WithKind(KindValidation, base))
	testutil.AssertEqual(t, KindOf(wrapped), KindValidation)

	if !errors.Is(wrapped, base) {
		t.Error("underlying error should remain reachable through the kind wrapper")
	}
}

func TestKindErrorMessage(t *testing.T) {
	err := WithKind(KindExport, errors.New("stream unavailable"))
	testutil.AssertEqual(t, err.Error(), "ExportError: stream unavailable")
}
