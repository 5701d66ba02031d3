// Package tracking records OpenTelemetry metrics and span events for the retry loop.
package tracking

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/httpretry/retry"
)

const (
	meterName = "github.com/gaborage/httpretry/http"

	MetricAttempts         = "http.client.attempts"
	MetricAttemptDuration  = "http.client.attempt.duration"
	MetricRetryWait        = "http.client.retry.wait"
	MetricRetriesExhausted = "http.client.retries.exhausted"

	AttrServerAddress = "server.address"
	AttrOutcome       = "retry.outcome"
	AttrStatusCode    = "http.response.status_code"
	AttrAttempt       = "http.request.resend_count"

	EventAttempt = "http.attempt"
	EventWait    = "http.retry.wait"
)

// Observer implements retry.Observer on top of an OTel meter. Span events are added to
// the span found in the context handed to the retry loop.
type Observer struct {
	attempts        metric.Int64Counter
	attemptDuration metric.Float64Histogram
	retryWait       metric.Float64Histogram
	exhausted       metric.Int64Counter
}

var _ retry.Observer = (*Observer)(nil)

// logMetricError reports instrument registration failures; metrics are best-effort.
func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", name, err)
	}
}

// NewObserver registers the client instruments on mp.
func NewObserver(mp metric.MeterProvider) *Observer {
	meter := mp.Meter(meterName)
	o := &Observer{}

	var err error
	o.attempts, err = meter.Int64Counter(
		MetricAttempts,
		metric.WithDescription("Number of transport attempts, labelled by retry classification"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(MetricAttempts, err)

	o.attemptDuration, err = meter.Float64Histogram(
		MetricAttemptDuration,
		metric.WithDescription("Duration of a single transport attempt"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	logMetricError(MetricAttemptDuration, err)

	o.retryWait, err = meter.Float64Histogram(
		MetricRetryWait,
		metric.WithDescription("Backoff wait applied before a retry"),
		metric.WithUnit("s"),
	)
	logMetricError(MetricRetryWait, err)

	o.exhausted, err = meter.Int64Counter(
		MetricRetriesExhausted,
		metric.WithDescription("Number of requests that ended in a timeout after exhausting their retries"),
		metric.WithUnit("{request}"),
	)
	logMetricError(MetricRetriesExhausted, err)

	return o
}

// AttemptFinished records one attempt.
func (o *Observer) AttemptFinished(ctx context.Context, info retry.AttemptInfo) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrServerAddress, host(info.Target)),
		attribute.String(AttrOutcome, info.Class.String()),
	}
	if info.Class != retry.ClassTimeout {
		attrs = append(attrs, attribute.Int(AttrStatusCode, info.StatusCode))
	}

	if o.attempts != nil {
		o.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if o.attemptDuration != nil {
		o.attemptDuration.Record(ctx, info.Duration.Seconds(), metric.WithAttributes(attrs...))
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent(EventAttempt, trace.WithAttributes(append(attrs, attribute.Int(AttrAttempt, info.Attempt))...))
}

// WaitStarted records a backoff wait.
func (o *Observer) WaitStarted(ctx context.Context, target string, retryNumber int, delay time.Duration) {
	if o.retryWait != nil {
		o.retryWait.Record(ctx, delay.Seconds(), metric.WithAttributes(attribute.String(AttrServerAddress, host(target))))
	}
	trace.SpanFromContext(ctx).AddEvent(EventWait, trace.WithAttributes(
		attribute.Int(AttrAttempt, retryNumber),
		attribute.Float64("retry.delay_seconds", delay.Seconds()),
	))
}

// Exhausted records a request that gave up on a timeout.
func (o *Observer) Exhausted(ctx context.Context, target string, _ int) {
	if o.exhausted != nil {
		o.exhausted.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrServerAddress, host(target))))
	}
}

func host(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
