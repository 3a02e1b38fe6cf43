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
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/internal/version"
)

// checkTimeout bounds one component probe during a health request.
const checkTimeout = 5 * time.Second

// ComponentChecker probes one dependency of the gateway, typically a
// backend Ping or an LLM reachability test.
type ComponentChecker struct {
	Name  string
	Check func(ctx context.Context) error
}

// ValidateComponents runs every component check once with a generous
// timeout. Called during startup so a dead backend surfaces before the
// listener opens.
func ValidateComponents(ctx context.Context, checkers []ComponentChecker, logger *zap.Logger) error {
	var failures []string
	for _, checker := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := checker.Check(checkCtx)
		cancel()

		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", checker.Name, err))
			continue
		}
		logger.Info("Component check passed", zap.String("component", checker.Name))
	}
	if len(failures) > 0 {
		return fmt.Errorf("component preflight check failed:\n  %s", strings.Join(failures, "\n  "))
	}
	return nil
}

// handleHealth reports liveness of the HTTP layer without probing backends.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": nowStamp(),
		"service":   serviceName,
		"version":   version.Get(),
	})
}

// handleHealthDetailed probes every registered component and reports
// per-component status alongside runtime metrics and the loop
// configuration.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	components, failed := s.checkComponents(r.Context())

	status := "healthy"
	if len(failed) > 0 {
		status = "degraded"
	}
	s.metrics.SetHealthy(len(failed) == 0)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"timestamp":      nowStamp(),
		"service":        serviceName,
		"version":        version.Get(),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"components":     components,
		"configuration": map[string]any{
			"max_cycles":        s.pipeline.MaxCycles,
			"quality_threshold": s.pipeline.QualityThreshold,
			"timeout_seconds":   s.pipeline.AgentTimeoutSeconds,
		},
		"metrics": s.metrics.Snapshot(),
	})
}

// handleHealthReady gates traffic on the component checks, for load
// balancers and rollout probes.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	_, failed := s.checkComponents(r.Context())
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    fmt.Sprintf("components unavailable: %s", strings.Join(failed, ", ")),
			"timestamp": nowStamp(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": nowStamp(),
	})
}

func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": nowStamp(),
		"service":   serviceName,
	})
}

// checkComponents runs every registered probe and returns the component
// status map plus the names that failed, sorted for stable payloads.
// Results are reused for the configured interval so readiness polling
// does not turn into a probe storm against the backends.
func (s *Server) checkComponents(ctx context.Context) (map[string]any, []string) {
	interval := time.Duration(s.monitoring.HealthCheckIntervalSeconds) * time.Second
	if interval > 0 {
		s.healthMu.Lock()
		if s.lastComponents != nil && time.Since(s.lastProbe) < interval {
			components, failed := s.lastComponents, s.lastFailed
			s.healthMu.Unlock()
			return components, failed
		}
		s.healthMu.Unlock()
	}

	components := map[string]any{
		"api": map[string]any{"status": "healthy", "message": "API layer operational"},
	}

	var failed []string
	for _, checker := range s.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker.Check(checkCtx)
		cancel()

		if err != nil {
			failed = append(failed, checker.Name)
			components[checker.Name] = map[string]any{"status": "unhealthy", "message": err.Error()}
			s.logger.Warn("Component check failed",
				zap.String("component", checker.Name),
				zap.Error(err))
			continue
		}
		components[checker.Name] = map[string]any{"status": "healthy", "message": "operational"}
	}
	sort.Strings(failed)

	if interval > 0 {
		s.healthMu.Lock()
		s.lastProbe = time.Now()
		s.lastComponents = components
		s.lastFailed = failed
		s.healthMu.Unlock()
	}
	return components, failed
}
