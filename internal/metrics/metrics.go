// Package metrics holds the Prometheus collectors for the connector. They
// live in a private registry served by Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stand_connector"

var (
	registry = prometheus.NewRegistry()

	analysesTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses by submission type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	urlClassifications = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_classifications_total",
			Help:      "URL submissions classified as direct images or plain URLs.",
		},
		[]string{"result"},
	)

	illustrationsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "illustrations_total",
			Help:      "Slideshow frames by outcome (image or placeholder).",
		},
		[]string{"outcome"},
	)

	transcriptLookups = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_lookups_total",
			Help:      "Transcript lookups by outcome.",
		},
		[]string{"outcome"},
	)

	toolCalls = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the narrative model.",
		},
		[]string{"tool", "outcome"},
	)

	providerDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of generation provider calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"provider", "operation", "outcome"},
	)

	httpDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveAnalysis counts one finished analysis
func ObserveAnalysis(submissionType string, err error) {
	analysesTotal.WithLabelValues(submissionType, outcome(err)).Inc()
}

// ObserveURLClassification counts a discriminator decision ("image" or "url")
func ObserveURLClassification(result string) {
	urlClassifications.WithLabelValues(result).Inc()
}

// ObserveIllustration counts one slideshow frame
func ObserveIllustration(placeholder bool) {
	if placeholder {
		illustrationsTotal.WithLabelValues("placeholder").Inc()
		return
	}
	illustrationsTotal.WithLabelValues("image").Inc()
}

// ObserveTranscript counts a lookup: "hit", "fetched" or "unavailable"
func ObserveTranscript(result string) {
	transcriptLookups.WithLabelValues(result).Inc()
}

// ObserveToolCall counts one tool invocation
func ObserveToolCall(tool string, err error) {
	toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

// ObserveProvider records the latency of one provider call
func ObserveProvider(provider, operation string, start time.Time, err error) {
	providerDuration.WithLabelValues(provider, operation, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one API request
func ObserveHTTP(method, route, status string, d time.Duration) {
	httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// Gatherer exposes the registry, mainly for tests
func Gatherer() prometheus.Gatherer { return registry }

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
