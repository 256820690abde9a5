// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

// Package metrics provides Prometheus instrumentation for Ticketwatch:
//   - Vendor fetch latency, retries, and circuit breaker state
//   - Poll cycle outcomes and durations per match
//   - Ticket sale / release counters and snapshot sizes
//   - Database query performance (DuckDB)
//   - API endpoint latency and throughput
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle result label values used with CyclesTotal.
const (
	CycleResultChanged      = "changed"
	CycleResultUnchanged    = "unchanged"
	CycleResultSkipped      = "skipped"
	CycleResultFetchError   = "fetch_error"
	CycleResultParseError   = "parse_error"
	CycleResultPersistError = "persist_error"
)

var (
	// Vendor API metrics
	VendorFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendor_fetch_duration_seconds",
			Help:    "Duration of vendor inventory fetches including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"match_id"},
	)

	VendorFetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_fetch_retries_total",
			Help: "Total number of vendor fetch retry attempts",
		},
		[]string{"match_id"},
	)

	VendorFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_fetch_failures_total",
			Help: "Total number of vendor fetches that exhausted all retries",
		},
		[]string{"match_id"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Poll cycle metrics
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Duration of full fetch-normalize-reconcile cycles",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"match_id"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		},
		[]string{"match_id", "result"},
	)

	CyclesSkippedInFlight = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_skipped_in_flight_total",
			Help: "Ticks skipped because the previous cycle was still running",
		},
		[]string{"match_id"},
	)

	// Inventory metrics
	TicketsSoldTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Total number of seats observed leaving inventory",
		},
		[]string{"match_id"},
	)

	TicketsReleasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_released_total",
			Help: "Total number of seats observed returning to inventory",
		},
		[]string{"match_id"},
	)

	SnapshotSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_snapshot_size",
			Help: "Number of seat identifiers in the last committed snapshot",
		},
		[]string{"match_id"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Event publishing metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sale_events_published_total",
			Help: "Total number of sale/release events published by result",
		},
		[]string{"topic", "result"}, // "success", "failure"
	)
)

// RecordDBQuery records the duration and outcome of a database operation.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordCycle records a completed poll cycle with its outcome label.
func RecordCycle(matchID, result string, duration time.Duration) {
	CycleDuration.WithLabelValues(matchID).Observe(duration.Seconds())
	CyclesTotal.WithLabelValues(matchID, result).Inc()
}

// RecordAPIRequest records a handled API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
