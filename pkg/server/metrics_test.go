// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.
package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/argonaut/pkg/config"
)

func TestMetricsEndpoint_JSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/chat", map[string]any{"query": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)

	labels, ok := payload["labels"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, serviceName, labels["service"])
	assert.NotEmpty(t, labels["version"])

	metrics, ok := payload["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), metrics["total_queries"])
	assert.Equal(t, float64(0), metrics["total_errors"])
}

func TestMetricsEndpoint_Prometheus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/chat", map[string]any{"query": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/metrics/prometheus", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "argonaut_queries_total")
	assert.Contains(t, body, "argonaut_response_time_seconds")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options) {
		o.Monitoring = config.MetricsConfig{Enabled: false}
	})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/metrics/prometheus", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Health routes are unaffected by the metrics switch.
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint_Reset(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/v1/chat", map[string]any{"query": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), srv.metrics.Snapshot().QueriesTotal)

	rec = doRequest(t, srv.Handler(), http.MethodPost, "/metrics/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "Metrics reset successfully", payload["message"])

	assert.Equal(t, int64(0), srv.metrics.Snapshot().QueriesTotal)
}
