package drafting

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type draftMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	draftMetricsOnce sync.Once
	draftMetricsOK   bool
	metrics          draftMetrics
)

func ensureDraftMetrics() bool {
	draftMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/zatekoja/Medicalqueryreview/drafting")

		requestCount, err := meter.Int64Counter(
			"draft.request.count",
			metric.WithDescription("Number of drafting service requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"draft.request.duration",
			metric.WithDescription("Drafting service request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"draft.request.errors",
			metric.WithDescription("Number of drafting requests that produced no draft"),
		)
		if err != nil {
			return
		}

		metrics = draftMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
		draftMetricsOK = true
	})
	return draftMetricsOK
}

func recordDraftMetric(ctx context.Context, statusCode int, duration time.Duration, err error) {
	if !ensureDraftMetrics() {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("draft.provider", "http")}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		metrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
