// Package observe provides application-wide observability primitives for
// Meetbot: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Meetbot metrics.
const meterName = "github.com/augmentlabs/meetbot"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Dispatch pipeline ---

	// EventsIngested counts utterances entering the dispatch queue. Use with
	// attribute: attribute.String("channel", ...).
	EventsIngested metric.Int64Counter

	// EventsDeduplicated counts utterances dropped as already seen.
	EventsDeduplicated metric.Int64Counter

	// CommandsRouted counts routed commands. Use with attributes:
	//   attribute.String("route", ...), attribute.String("status", ...)
	// Misses are recorded with route "fallback".
	CommandsRouted metric.Int64Counter

	// HandlerDuration tracks command handler execution latency. Use with
	// attribute: attribute.String("route", ...).
	HandlerDuration metric.Float64Histogram

	// RepliesEmitted counts replies sent back into the meeting. Use with
	// attribute: attribute.String("status", ...).
	RepliesEmitted metric.Int64Counter

	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks LLM inference latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Provider counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveParticipants tracks the number of participants currently seen in
	// the meeting.
	ActiveParticipants metric.Int64UpDownCounter

	// TranscriptLines tracks the number of transcript lines captured so far.
	TranscriptLines metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for command-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Dispatch pipeline.
	if met.EventsIngested, err = m.Int64Counter("meetbot.events.ingested",
		metric.WithDescription("Total utterances entering the dispatch queue, by channel."),
	); err != nil {
		return nil, err
	}
	if met.EventsDeduplicated, err = m.Int64Counter("meetbot.events.deduplicated",
		metric.WithDescription("Total utterances dropped as duplicates."),
	); err != nil {
		return nil, err
	}
	if met.CommandsRouted, err = m.Int64Counter("meetbot.commands.routed",
		metric.WithDescription("Total routed commands by route and status."),
	); err != nil {
		return nil, err
	}
	if met.HandlerDuration, err = m.Float64Histogram("meetbot.handler.duration",
		metric.WithDescription("Latency of command handler execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RepliesEmitted, err = m.Int64Counter("meetbot.replies.emitted",
		metric.WithDescription("Total replies emitted into the meeting, by status."),
	); err != nil {
		return nil, err
	}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("meetbot.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("meetbot.llm.duration",
		metric.WithDescription("Latency of LLM inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("meetbot.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Provider counters.
	if met.ProviderRequests, err = m.Int64Counter("meetbot.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("meetbot.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveParticipants, err = m.Int64UpDownCounter("meetbot.active_participants",
		metric.WithDescription("Number of participants currently in the meeting."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptLines, err = m.Int64UpDownCounter("meetbot.transcript_lines",
		metric.WithDescription("Number of transcript lines captured so far."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("meetbot.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordEvent records an utterance entering the dispatch queue.
func (m *Metrics) RecordEvent(ctx context.Context, channel string) {
	m.EventsIngested.Add(ctx, 1,
		metric.WithAttributes(attribute.String("channel", channel)),
	)
}

// RecordCommand records a routed command with the standard attribute set.
// An empty route is recorded as "fallback".
func (m *Metrics) RecordCommand(ctx context.Context, route, status string) {
	if route == "" {
		route = "fallback"
	}
	m.CommandsRouted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
