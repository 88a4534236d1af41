package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/internal/config"
	"github.com/vnykmshr/flowline/internal/testutil"
	"github.com/vnykmshr/flowline/pkg/pipeline"
	"github.com/vnykmshr/flowline/pkg/stages"
)

func testEnv() config.Environment {
	return config.Environment{
		Mode:             config.ModeDevelopment,
		TransportHost:    "127.0.0.1",
		TransportPort:    6379,
		ExportStream:     "flowline:test",
		SnapshotSchedule: "@every 1m",
	}
}

// fakeTransport delivers payloads from a channel, standing in for the
// pub/sub wire.
type fakeTransport struct {
	payloads  chan []byte
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{payloads: make(chan []byte, 16)}
}

func (f *fakeTransport) Connect(_ context.Context) error { return nil }

func (f *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case p, ok := <-f.payloads:
		if !ok {
			return nil, errors.New("transport closed")
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.payloads) })
	return nil
}

func TestOrchestratorEndToEnd(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ft := newFakeTransport()
	sink := stages.NewMemorySink(0)
	o := New(testEnv(), zerolog.Nop(), ft, sink, nil)

	testutil.AssertNoError(t, o.Initialize(ctx))
	defer func() { testutil.AssertNoError(t, o.Shutdown(ctx)) }()

	ft.payloads <- []byte(`{"id": 1, "type": "Event", "data": "first message"}`)
	ft.payloads <- []byte(`not a document`)

	testutil.Eventually(t, func() bool {
		return o.Monitor().CompletedPipelines() == 1
	}, 2*time.Second, 10*time.Millisecond)

	mon := o.Monitor()
	testutil.AssertEqual(t, mon.NotCompletedPipelines(), 0)

	snap := mon.Metrics()
	testutil.AssertEqual(t, snap.Counts["IngressAdapter.handle"], 1)
	testutil.AssertEqual(t, snap.Counts["Transformer.handle"], 1)
	testutil.AssertEqual(t, snap.Counts["Enricher.handle"], 1)
	testutil.AssertEqual(t, snap.Counts["Exporter.handle"], 1)
	testutil.AssertEqual(t, snap.Errors["IngressAdapter.handle"], 1)
	testutil.AssertEqual(t, mon.ErrorKindCounts("IngressAdapter.handle")[pipeline.KindDecode], 1)

	entries := sink.Entries()
	testutil.AssertEqual(t, len(entries), 1)
	testutil.AssertEqual(t, entries[0].MessageType, "event")
	testutil.AssertEqual(t, entries[0].Payload["data"].(string), "first message")
}

func TestOrchestratorInject(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	o := New(testEnv(), zerolog.Nop(), newFakeTransport(), stages.NewMemorySink(0), nil)
	testutil.AssertNoError(t, o.Initialize(ctx))
	defer func() { testutil.AssertNoError(t, o.Shutdown(ctx)) }()

	testutil.AssertNoError(t, o.Inject(ctx, []byte(`{"id": 9, "type": "event"}`)))
	testutil.AssertEqual(t, o.Monitor().CompletedPipelines(), 1)

	testutil.AssertError(t, o.Inject(ctx, []byte(`{"type": "no id"}`)))
	testutil.AssertEqual(t, o.Monitor().Metrics().Errors["Transformer.handle"], 1)
}

func TestOrchestratorInitializeTwice(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	o := New(testEnv(), zerolog.Nop(), newFakeTransport(), stages.NewMemorySink(0), nil)
	testutil.AssertNoError(t, o.Initialize(ctx))
	defer func() { testutil.AssertNoError(t, o.Shutdown(ctx)) }()

	if err := o.Initialize(ctx); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("got %v, want ErrAlreadyInitialized", err)
	}
}

func TestOrchestratorBadSnapshotSchedule(t *testing.T) {
	env := testEnv()
	env.SnapshotSchedule = "not a schedule"

	o := New(env, zerolog.Nop(), newFakeTransport(), stages.NewMemorySink(0), nil)
	testutil.AssertError(t, o.Initialize(context.Background()))

	// The schedule is validated before any stage starts.
	testutil.AssertEqual(t, o.adapter.Running(), false)
}

// fakeStage records lifecycle calls for sequencing tests.
type fakeStage struct {
	name        string
	initErr     error
	shutdownErr error
	initialized bool
	shutdowns   int
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Initialize(_ context.Context) error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeStage) Shutdown(_ context.Context) error {
	f.shutdowns++
	return f.shutdownErr
}

func TestInitializeStagesFailFast(t *testing.T) {
	s1 := &fakeStage{name: "one"}
	s2 := &fakeStage{name: "two"}
	s3 := &fakeStage{name: "three", initErr: errors.New("bind failed")}
	s4 := &fakeStage{name: "four"}

	err := initializeStages(context.Background(), zerolog.Nop(),
		[]pipeline.Lifecycle{s1, s2, s3, s4})
	testutil.AssertError(t, err)

	// Stages before the failure were initialized; the one after was never
	// touched.
	testutil.AssertEqual(t, s1.initialized, true)
	testutil.AssertEqual(t, s2.initialized, true)
	testutil.AssertEqual(t, s3.initialized, false)
	testutil.AssertEqual(t, s4.initialized, false)
}

func TestShutdownBestEffort(t *testing.T) {
	o := New(testEnv(), zerolog.Nop(), newFakeTransport(), stages.NewMemorySink(0), nil)

	s1 := &fakeStage{name: "one", shutdownErr: errors.New("close failed")}
	s2 := &fakeStage{name: "two"}
	o.order = []pipeline.Lifecycle{s1, s2}

	err := o.Shutdown(context.Background())
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, s1.shutdowns, 1)
	testutil.AssertEqual(t, s2.shutdowns, 1)
}
