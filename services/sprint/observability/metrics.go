// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the sprint
// pipeline.
//
// # Description
//
// Metrics cover sprint requests (by status), per-phase latency, pipeline
// errors (by kind), and the size of curated selections. Metrics are
// exposed via the /metrics endpoint for Prometheus scraping.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "phoenix"

// Subsystem for sprint pipeline metrics
const sprintSubsystem = "sprint"

// SprintMetrics holds all Prometheus metrics for the sprint pipeline.
//
// # Thread Safety
//
// All operations are thread-safe.
type SprintMetrics struct {
	// RequestsTotal counts sprint requests by status.
	// Labels: status (success, error)
	RequestsTotal *prometheus.CounterVec

	// PhaseDurationSeconds measures per-phase latency.
	// Labels: phase (classify, retrieve, score, curate, brief, generate)
	PhaseDurationSeconds *prometheus.HistogramVec

	// ErrorsTotal counts pipeline errors by kind and phase.
	// Labels: kind, phase
	ErrorsTotal *prometheus.CounterVec

	// CuratedToolsCount measures the size of curated selections.
	CuratedToolsCount prometheus.Histogram

	// GenerationTokensTotal counts tokens used by the generation call.
	// Labels: direction (input, output)
	GenerationTokensTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of SprintMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *SprintMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Call once at
// application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *SprintMetrics {
	DefaultMetrics = &SprintMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sprintSubsystem,
				Name:      "requests_total",
				Help:      "Total sprint requests by status",
			},
			[]string{"status"},
		),

		PhaseDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: sprintSubsystem,
				Name:      "phase_duration_seconds",
				Help:      "Pipeline phase duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"phase"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sprintSubsystem,
				Name:      "errors_total",
				Help:      "Total pipeline errors by kind and phase",
			},
			[]string{"kind", "phase"},
		),

		CuratedToolsCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: sprintSubsystem,
				Name:      "curated_tools_count",
				Help:      "Number of tools in curated selections",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 7},
			},
		),

		GenerationTokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sprintSubsystem,
				Name:      "generation_tokens_total",
				Help:      "Tokens used by the generation call by direction",
			},
			[]string{"direction"},
		),
	}
	return DefaultMetrics
}

// ObservePhase records one phase duration when metrics are initialized.
func ObservePhase(phase string, seconds float64) {
	if DefaultMetrics != nil {
		DefaultMetrics.PhaseDurationSeconds.WithLabelValues(phase).Observe(seconds)
	}
}

// RecordError counts one pipeline error when metrics are initialized.
func RecordError(kind, phase string) {
	if DefaultMetrics != nil {
		DefaultMetrics.ErrorsTotal.WithLabelValues(kind, phase).Inc()
	}
}

// RecordRequest counts one sprint request by status.
func RecordRequest(status string) {
	if DefaultMetrics != nil {
		DefaultMetrics.RequestsTotal.WithLabelValues(status).Inc()
	}
}

// RecordCuratedCount records the size of one curated selection.
func RecordCuratedCount(n int) {
	if DefaultMetrics != nil {
		DefaultMetrics.CuratedToolsCount.Observe(float64(n))
	}
}

// RecordGenerationTokens counts generation token usage.
func RecordGenerationTokens(prompt, completion int) {
	if DefaultMetrics != nil {
		DefaultMetrics.GenerationTokensTotal.WithLabelValues("input").Add(float64(prompt))
		DefaultMetrics.GenerationTokensTotal.WithLabelValues("output").Add(float64(completion))
	}
}
