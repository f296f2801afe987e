package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	QueriesTotal        metric.Int64Counter
	ProviderErrorsTotal metric.Int64Counter
	ChatDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// Get initializes the global metric instruments once and returns them.
// Instruments come from the globally configured MeterProvider, so callers
// record no-ops until the serve entry point installs a real provider.
func Get() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("RoamWise")
		var err error
		m := &AppMetrics{}

		m.QueriesTotal, err = meter.Int64Counter(
			"travel_queries_total",
			metric.WithDescription("Total number of routed travel queries"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create travel_queries_total: %v", err)
		}

		m.ProviderErrorsTotal, err = meter.Int64Counter(
			"provider_errors_total",
			metric.WithDescription("Total number of upstream provider failures"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_errors_total: %v", err)
		}

		m.ChatDurationSeconds, err = meter.Float64Histogram(
			"chat_duration_seconds",
			metric.WithDescription("Duration of chat completion calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_duration_seconds: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}
