// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability collects request-level metrics for the gateway.
// Everything registers on a private prometheus registry so the exposition
// endpoint carries only argonaut series, and the same counters back the
// JSON snapshot served next to it.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "argonaut"

// Snapshot is the JSON view of the request counters.
type Snapshot struct {
	QueriesTotal           int64      `json:"queries_total"`
	ErrorsTotal            int64      `json:"errors_total"`
	ErrorRate              float64    `json:"error_rate"`
	AvgResponseTimeSeconds float64    `json:"avg_response_time_seconds"`
	AgentHealthy           bool       `json:"agent_healthy"`
	LastHealthCheck        *time.Time `json:"last_health_check"`
}

// Options configures the metrics set.
type Options struct {
	// ActiveSessions reports the live-session count at scrape time.
	ActiveSessions func() int
}

// Metrics owns the registry and the aggregate counters behind it. The
// top-level series (queries, errors, error rate, average response time,
// health) are Func collectors over the aggregates, so Reset clears the
// exposition and the snapshot together.
type Metrics struct {
	registry *prometheus.Registry

	errorsByKind    *prometheus.CounterVec
	responseSeconds *prometheus.HistogramVec
	agentSeconds    *prometheus.HistogramVec
	pipelineCycles  *prometheus.HistogramVec
	qualityScore    *prometheus.HistogramVec

	mu           sync.Mutex
	queries      int64
	errors       int64
	totalSeconds float64
	healthy      bool
	lastCheck    time.Time
}

// New builds the metrics set and registers every collector.
func New(opts Options) *Metrics {
	sessions := opts.ActiveSessions
	if sessions == nil {
		sessions = func() int { return 0 }
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		// Label-free series still use vec types: plain histograms
		// cannot drop recorded samples on Reset.
		errorsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "Request errors by error kind.",
		}, []string{"kind"}),
		responseSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_time_seconds",
			Help:      "End-to-end request latency by query category.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"category"}),
		agentSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_duration_seconds",
			Help:      "Backend agent run time by agent kind.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"agent"}),
		pipelineCycles: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_cycles",
			Help:      "Analysis cycles executed per pipeline run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, nil),
		qualityScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Final analysis quality score per pipeline run.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, nil),
	}

	m.registry.MustRegister(
		m.errorsByKind,
		m.responseSeconds,
		m.agentSeconds,
		m.pipelineCycles,
		m.qualityScore,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries processed.",
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return float64(m.queries)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of query errors.",
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return float64(m.errors)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_rate",
			Help:      "Errors per processed query.",
		}, func() float64 {
			return m.Snapshot().ErrorRate
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "avg_response_time_seconds",
			Help:      "Average end-to-end response time in seconds.",
		}, func() float64 {
			return m.Snapshot().AvgResponseTimeSeconds
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_healthy",
			Help:      "Agent system health status (1=healthy, 0=unhealthy).",
		}, func() float64 {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.healthy {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently resident and unexpired.",
		}, func() float64 {
			return float64(sessions())
		}),
	)
	return m
}

// Gatherer exposes the private registry for promhttp.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveQuery records one completed request and its latency.
func (m *Metrics) ObserveQuery(category string, elapsed time.Duration) {
	m.responseSeconds.WithLabelValues(category).Observe(elapsed.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	m.totalSeconds += elapsed.Seconds()
}

// ObserveError records one failed request under its error kind.
func (m *Metrics) ObserveError(kind string) {
	m.errorsByKind.WithLabelValues(kind).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// ObserveAgent records one agent run.
func (m *Metrics) ObserveAgent(agent string, elapsed time.Duration) {
	m.agentSeconds.WithLabelValues(agent).Observe(elapsed.Seconds())
}

// ObservePipeline records the cycle count and final quality of one
// completed pipeline run.
func (m *Metrics) ObservePipeline(cycles int, quality float64) {
	m.pipelineCycles.WithLabelValues().Observe(float64(cycles))
	m.qualityScore.WithLabelValues().Observe(quality)
}

// SetHealthy records the latest health-check verdict.
func (m *Metrics) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
	m.lastCheck = time.Now()
}

// Snapshot returns the JSON view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		QueriesTotal: m.queries,
		ErrorsTotal:  m.errors,
		AgentHealthy: m.healthy,
	}
	if m.queries > 0 {
		s.ErrorRate = float64(m.errors) / float64(m.queries)
		s.AvgResponseTimeSeconds = m.totalSeconds / float64(m.queries)
	}
	if !m.lastCheck.IsZero() {
		t := m.lastCheck
		s.LastHealthCheck = &t
	}
	return s
}

// Reset zeroes the aggregate counters and drops recorded label children
// and histogram samples. Health state survives; it reflects the system,
// not traffic.
func (m *Metrics) Reset() {
	m.errorsByKind.Reset()
	m.responseSeconds.Reset()
	m.agentSeconds.Reset()
	m.pipelineCycles.Reset()
	m.qualityScore.Reset()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = 0
	m.errors = 0
	m.totalSeconds = 0
}
