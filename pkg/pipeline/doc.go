/*
Package pipeline provides the staged message-processing core of flowline:
typed stages connected by callback handoff, observed by a Monitor.

A stage is a unit of work with a uniform lifecycle (Initialize, Handle,
Shutdown). Stage[I, O] supplies the shared machinery; concrete stages embed
it and provide their transform at construction:

	type Doubler struct {
		*pipeline.Stage[int, int]
	}

	func NewDoubler() *Doubler {
		d := &Doubler{}
		d.Stage = pipeline.NewStage("Doubler", func(ctx context.Context, in int) (int, error) {
			return in * 2, nil
		})
		return d
	}

# Handoff

Stages are chained by registering the next stage's Handle as a handled
callback of the previous one:

	pipeline.Connect(first.Stage, second.Stage)

Handle times the stage's transform, emits a success or error event, and
forwards the result to every handled callback in registration order. Each
callback runs to completion before the next, so a message traverses the
whole chain end-to-end before the next message starts.

# Monitoring

Monitor subscribes to every stage's success and error events:

	mon := pipeline.NewMonitor(log, nil)
	stage.OnSuccess(mon.OnSuccess)
	stage.OnError(mon.OnError)

It accumulates per-stage counters, a sliding window of recent durations
(1000 samples), and pipeline completion counts. Metrics() returns a
point-in-time snapshot.

# Error Handling

A failing transform emits exactly one error event and surfaces the failure
to Handle's caller; no handled or success callback fires, so the message's
traversal ends there. There are no retries. Errors carry a stable kind
label (see KindOf) used for nested error accounting.
*/
package pipeline
