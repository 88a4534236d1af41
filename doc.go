/*
Package flowline is a staged message-processing pipeline service: an
asynchronous pub/sub listener feeding a chain of typed stages, observed by
a metrics monitor.

Components (pkg/):
  - pipeline: the stage contract, callback handoff, and the Monitor
  - ingress: the transport-facing adapter stage (Redis pub/sub)
  - stages: the concrete chain — Transformer, Enricher, Exporter
  - orchestrator: pipeline assembly and lifecycle sequencing
  - metrics: Prometheus instrumentation

The daemon lives in cmd/flowlined. Messages flow one at a time, end to
end, in receipt order:

	transport -> IngressAdapter -> Transformer -> Enricher -> Exporter -> sink

Each stage's Handle times its transform, emits a success or error event to
the monitor, and forwards the result to the next stage. A message that
fails at any stage produces exactly one error event and travels no
further; a message that reaches the end of the chain produces exactly one
pipeline-completion event.
*/
package flowline
