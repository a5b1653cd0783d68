package dispatch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/augmentlabs/meetbot/internal/event"
	"github.com/augmentlabs/meetbot/internal/observe"
)

// defaultHandlerTimeout bounds a single command handler execution. A
// stuck handler (slow LLM call, dead browser bridge) must not wedge the
// dispatch loop forever.
const defaultHandlerTimeout = 30 * time.Second

// errorReply is emitted when a handler fails without producing a reply.
const errorReply = "Sorry, something went wrong while handling that command."

// Dispatcher is the single consumer of the merged event stream. It
// applies the self-echo guard, duplicate suppression and trigger
// extraction, routes recognized commands, and emits replies — strictly
// one event at a time, in arrival order.
type Dispatcher struct {
	trigger Trigger
	dedup   *Deduper
	router  *Router
	emit    Emitter
	metrics *observe.Metrics
	timeout time.Duration

	// correct repairs likely trigger-word mishearings in spoken
	// transcripts before detection runs. Nil disables correction.
	correct func(string) string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHandlerTimeout overrides the per-command handler timeout.
func WithHandlerTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.timeout = d }
}

// WithMetrics overrides the metrics instance (tests use a private
// meter provider here).
func WithMetrics(m *observe.Metrics) Option {
	return func(dp *Dispatcher) { dp.metrics = m }
}

// WithCorrector installs a transcript corrector applied to spoken
// events before trigger detection.
func WithCorrector(correct func(string) string) Option {
	return func(dp *Dispatcher) { dp.correct = correct }
}

// New creates a Dispatcher routing over router and emitting via emit.
func New(trigger Trigger, router *Router, emit Emitter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		trigger: trigger,
		dedup:   NewDeduper(),
		router:  router,
		emit:    emit,
		metrics: observe.DefaultMetrics(),
		timeout: defaultHandlerTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run consumes events until ctx is cancelled or the channel closes.
// It never returns a handler error — handler failures are logged and
// answered in chat, and the loop keeps going.
func (d *Dispatcher) Run(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes a single event through the full pipeline. Exported
// so producers with their own loop (and tests) can drive the
// dispatcher directly.
func (d *Dispatcher) Handle(ctx context.Context, ev event.Event) {
	d.metrics.RecordEvent(ctx, string(ev.Channel))

	// Never react to our own replies echoed back through the chat poll.
	if ev.FromAssistant {
		return
	}

	text := ev.Text
	if d.correct != nil && ev.Channel == event.ChannelSpoken {
		text = d.correct(text)
	}

	if d.dedup.Seen(ev.Speaker, text) {
		d.metrics.EventsDeduplicated.Add(ctx, 1)
		return
	}

	cmdText, ok := d.trigger.Extract(text)
	if !ok {
		return
	}

	slog.Info("dispatch: command candidate",
		"speaker", ev.Speaker,
		"channel", ev.Channel,
		"command", cmdText,
	)

	hctx, cancel := context.WithTimeout(ctx, d.timeout)
	start := time.Now()
	name, res, err := d.router.Route(hctx, Command{Event: ev, Text: cmdText})
	cancel()

	route := name
	if route == "" {
		route = "fallback"
	}
	d.metrics.HandlerDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("route", route)),
	)

	if err != nil {
		slog.Warn("dispatch: command failed",
			"route", route,
			"speaker", ev.Speaker,
			"error", err,
		)
		d.metrics.RecordCommand(ctx, name, "error")
		if res.Reply == "" {
			res.Reply = errorReply
		}
	} else {
		d.metrics.RecordCommand(ctx, name, "ok")
	}

	if res.Reply == "" {
		return
	}
	if err := d.emit.Emit(ctx, ev, res.Reply); err != nil {
		slog.Error("dispatch: reply emission failed",
			"route", route,
			"error", err,
		)
		d.metrics.RepliesEmitted.Add(ctx, 1, metric.WithAttributes(observe.Attr("status", "error")))
		return
	}
	d.metrics.RepliesEmitted.Add(ctx, 1, metric.WithAttributes(observe.Attr("status", "ok")))
}
