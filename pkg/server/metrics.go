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
package server

import (
	"net/http"

	"github.com/teradata-labs/argonaut/internal/version"
)

// handleMetrics serves the aggregate counters as JSON for dashboards that
// do not scrape Prometheus.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp": nowStamp(),
		"metrics":   s.metrics.Snapshot(),
		"labels": map[string]string{
			"service": serviceName,
			"version": version.Get(),
		},
	})
}

// handleMetricsPrometheus serves the registry in exposition format.
func (s *Server) handleMetricsPrometheus(w http.ResponseWriter, r *http.Request) {
	s.promHandler.ServeHTTP(w, r)
}

func (s *Server) handleMetricsReset(w http.ResponseWriter, r *http.Request) {
	s.metrics.Reset()
	s.logger.Info("Metrics reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Metrics reset successfully",
		"timestamp": nowStamp(),
	})
}
