package pipeline

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/pkg/metrics"
)

const (
	// windowSize bounds the per-key duration sample window. Older samples
	// are evicted so long-running processes report recent latency, not a
	// lifetime average.
	windowSize = 1000

	// snapshotEvery is the pipeline-completion cadence for snapshot logs.
	snapshotEvery = 5
)

// Monitor is a pure event sink: it subscribes to every stage's success and
// error events and accumulates counters, bounded duration windows, and
// pipeline completion counts. It is not itself a stage.
//
// All mutable state is mutex-guarded; events may arrive from the ingress
// loop goroutine while Metrics is read elsewhere.
type Monitor struct {
	mu   sync.Mutex
	log  zerolog.Logger
	prom *metrics.Registry

	successCounts map[string]int
	durations     map[string][]time.Duration
	errorCounts   map[string]int
	errorKinds    map[string]map[string]int

	total        int
	completed    int
	notCompleted int
}

// Snapshot is the externally consumed metrics shape, computed at query time.
type Snapshot struct {
	// Counts maps "stage.operation" to its success count.
	Counts map[string]int `json:"counts"`

	// Errors maps "stage.operation" to its error count.
	Errors map[string]int `json:"errors"`

	// AvgDurationMS maps "stage.operation" to the mean of its current
	// sample window in milliseconds, rounded to two decimals. Keys with an
	// empty window are omitted.
	AvgDurationMS map[string]float64 `json:"avg_duration_ms"`
}

// NewMonitor creates a monitor logging through log. When prom is non-nil,
// every event is mirrored into its Prometheus collectors.
func NewMonitor(log zerolog.Logger, prom *metrics.Registry) *Monitor {
	return &Monitor{
		log:           log.With().Str("component", "monitor").Logger(),
		prom:          prom,
		successCounts: make(map[string]int),
		durations:     make(map[string][]time.Duration),
		errorCounts:   make(map[string]int),
		errorKinds:    make(map[string]map[string]int),
	}
}

// OnSuccess records a stage success: increments the key's counter and
// appends the duration to its sample window, evicting the oldest sample
// past the window bound.
func (m *Monitor) OnSuccess(ev SuccessEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ev.Key()
	m.successCounts[key]++

	w := m.durations[key]
	if len(w) == windowSize {
		copy(w, w[1:])
		w = w[:windowSize-1]
	}
	m.durations[key] = append(w, ev.Duration)

	if m.prom != nil {
		m.prom.StageSuccesses.WithLabelValues(ev.Stage).Inc()
		m.prom.StageDuration.WithLabelValues(ev.Stage).Observe(ev.Duration.Seconds())
	}
}

// OnError records a stage failure: increments the key's error counter and
// the nested counter for the event's kind.
func (m *Monitor) OnError(ev ErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ev.Key()
	m.errorCounts[key]++
	kinds := m.errorKinds[key]
	if kinds == nil {
		kinds = make(map[string]int)
		m.errorKinds[key] = kinds
	}
	kinds[ev.Kind]++

	if m.prom != nil {
		m.prom.StageErrors.WithLabelValues(ev.Stage, ev.Kind).Inc()
	}
}

// OnPipelineComplete records the outcome of one full pipeline traversal.
// Every fifth invocation logs a metrics snapshot, bounding log volume while
// keeping trend visibility.
func (m *Monitor) OnPipelineComplete(result bool) {
	m.mu.Lock()
	m.total++
	if result {
		m.completed++
		m.log.Info().Int("completed", m.completed).Msg("pipeline completed")
	} else {
		m.notCompleted++
		m.log.Info().Int("not_completed", m.notCompleted).Msg("pipeline not completed")
	}
	logSnapshot := m.total%snapshotEvery == 0
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if m.prom != nil {
		status := "completed"
		if !result {
			status = "not_completed"
		}
		m.prom.Pipelines.WithLabelValues(status).Inc()
	}
	if logSnapshot {
		m.log.Info().Interface("metrics", snap).Msg("metrics snapshot")
	}
}

// Metrics returns a point-in-time snapshot of accumulated metrics.
func (m *Monitor) Metrics() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() Snapshot {
	snap := Snapshot{
		Counts:        make(map[string]int, len(m.successCounts)),
		Errors:        make(map[string]int, len(m.errorCounts)),
		AvgDurationMS: make(map[string]float64, len(m.durations)),
	}
	for k, v := range m.successCounts {
		snap.Counts[k] = v
	}
	for k, v := range m.errorCounts {
		snap.Errors[k] = v
	}
	for k, w := range m.durations {
		if len(w) == 0 {
			continue
		}
		var sum time.Duration
		for _, d := range w {
			sum += d
		}
		mean := sum.Seconds() / float64(len(w))
		snap.AvgDurationMS[k] = math.Round(mean*1000*100) / 100
	}
	return snap
}

// ErrorKindCounts returns a copy of the nested per-kind error counts for a
// "stage.operation" key, or nil if the key has no recorded errors.
func (m *Monitor) ErrorKindCounts(key string) map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kinds := m.errorKinds[key]
	if kinds == nil {
		return nil
	}
	out := make(map[string]int, len(kinds))
	for k, v := range kinds {
		out[k] = v
	}
	return out
}

// CompletedPipelines returns the number of messages that reached and were
// processed by the terminal stage successfully.
func (m *Monitor) CompletedPipelines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed
}

// NotCompletedPipelines returns the number of terminal-stage outcomes that
// reported failure.
func (m *Monitor) NotCompletedPipelines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notCompleted
}
