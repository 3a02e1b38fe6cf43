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

// Package server exposes the gateway over HTTP: the chat endpoints backed by
// the query router, session management, health probes, and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/internal/version"
	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/observability"
	"github.com/teradata-labs/argonaut/pkg/router"
	"github.com/teradata-labs/argonaut/pkg/session"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// serviceName identifies the gateway in health and metrics payloads.
const serviceName = "argonaut-gateway"

// QueryRouter dispatches one chat turn to the conversational layer or the
// cyclic analysis pipeline.
type QueryRouter interface {
	Route(ctx context.Context, req router.Request) (*router.Result, error)
}

// Options carries the dependencies for New.
type Options struct {
	Config config.ServerConfig
	// Pipeline is echoed in health and chat metadata payloads.
	Pipeline config.PipelineConfig
	// Monitoring gates the metrics endpoints and bounds health probe
	// frequency.
	Monitoring config.MetricsConfig
	Router     QueryRouter
	Sessions   *session.Store
	Metrics    *observability.Metrics
	Checkers   []ComponentChecker
	Logger     *zap.Logger
}

// Server is the HTTP front door of the gateway.
type Server struct {
	cfg        config.ServerConfig
	pipeline   config.PipelineConfig
	monitoring config.MetricsConfig
	router     QueryRouter
	sessions   *session.Store
	metrics    *observability.Metrics
	checkers   []ComponentChecker
	logger     *zap.Logger

	httpServer  *http.Server
	limiter     *rateLimiter
	chatSchema  *gojsonschema.Schema
	promHandler http.Handler
	startedAt   time.Time

	// Probe results are cached between health requests so readiness
	// polling does not hammer the backends.
	healthMu       sync.Mutex
	lastProbe      time.Time
	lastComponents map[string]any
	lastFailed     []string
}

// New assembles the server and its middleware chain. The handler is built
// once here so Start only has to open the listener.
func New(opts Options) (*Server, error) {
	if opts.Router == nil {
		return nil, fmt.Errorf("server requires a query router")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("server requires a session store")
	}
	if opts.Metrics == nil {
		return nil, fmt.Errorf("server requires a metrics registry")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	chatSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat request schema: %w", err)
	}

	s := &Server{
		cfg:         opts.Config,
		pipeline:    opts.Pipeline,
		monitoring:  opts.Monitoring,
		router:      opts.Router,
		sessions:    opts.Sessions,
		metrics:     opts.Metrics,
		checkers:    opts.Checkers,
		logger:      logger,
		chatSchema:  chatSchema,
		promHandler: promhttp.HandlerFor(opts.Metrics.Gatherer(), promhttp.HandlerOpts{}),
		startedAt:   time.Now(),
	}
	if opts.Config.RateLimit.Enabled {
		window := time.Duration(opts.Config.RateLimit.WindowSeconds) * time.Second
		s.limiter = newRateLimiter(opts.Config.RateLimit.Requests, window, logger)
	}

	handler, err := s.buildHandler()
	if err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", opts.Config.Host, opts.Config.Port),
		Handler:     handler,
		ReadTimeout: time.Duration(opts.Config.ReadTimeoutSeconds) * time.Second,
		// Write timeout stays unset: SSE streams are bounded per request
		// by the chat timeout instead.
		WriteTimeout: 0,
		IdleTimeout:  time.Duration(opts.Config.IdleTimeoutSeconds) * time.Second,
	}
	return s, nil
}

// Start begins serving HTTP traffic. It blocks until the listener fails or
// Stop is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("rate_limit", s.limiter != nil),
		zap.Bool("cors", s.cfg.CORS.Enabled))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server stopping")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /api/v1/chat/examples", s.handleChatExamples)

	mux.HandleFunc("POST /api/v1/sessions/create", s.handleSessionCreate)
	mux.HandleFunc("GET /api/v1/sessions/{$}", s.handleSessionStats)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("GET /api/v1/sessions/{id}/history", s.handleSessionHistory)
	mux.HandleFunc("GET /api/v1/sessions/{id}/context", s.handleSessionContext)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/preferences", s.handleSessionPreferences)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleSessionDelete)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleHealthDetailed)
	mux.HandleFunc("GET /health/ready", s.handleHealthReady)
	mux.HandleFunc("GET /health/live", s.handleHealthLive)

	if s.monitoring.Enabled {
		mux.HandleFunc("GET /metrics", s.handleMetrics)
		mux.HandleFunc("GET /metrics/prometheus", s.handleMetricsPrometheus)
		mux.HandleFunc("POST /metrics/reset", s.handleMetricsReset)
	}

	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Argonaut Oceanographic Analysis API",
		"version":  version.Get(),
		"status":   "operational",
		"health":   "/health",
		"examples": "/api/v1/chat/examples",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode errors past this point mean the client went away.
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders any error as the gateway's error envelope. Untyped
// errors are treated as internal.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var typed *types.Error
	if !errors.As(err, &typed) {
		typed = types.WrapError(types.KindInternal, err, "An unexpected error occurred")
	}

	title, errType := errorShape(typed.Kind)
	payload := map[string]any{
		"error":     title,
		"kind":      string(typed.Kind),
		"message":   typed.Message,
		"type":      errType,
		"timestamp": nowStamp(),
	}
	if len(typed.Detail) > 0 {
		payload["details"] = typed.Detail
	}
	if typed.Kind == types.KindAgentTimeout {
		payload["suggestion"] = "Try a simpler query or increase timeout"
	}
	writeJSON(w, typed.Kind.HTTPStatus(), payload)
}

// errorShape maps an error kind to the human title and machine type used in
// the error envelope.
func errorShape(kind types.ErrorKind) (title, errType string) {
	switch kind {
	case types.KindInvalidInput:
		return "Validation Error", "validation_error"
	case types.KindSessionNotFound:
		return "Session Not Found", "http_error"
	case types.KindRateLimited:
		return "Rate Limit Exceeded", "rate_limit_error"
	case types.KindAgentTimeout:
		return "Request Timeout", "timeout_error"
	case types.KindBackendUnavailable, types.KindBackendQuery:
		return "Agent Error", "database_error"
	case types.KindLLMUnavailable:
		return "Agent Error", "agent_error"
	case types.KindCoreNotReady:
		return "Service Unavailable", "service_error"
	default:
		return "Internal Server Error", "internal_error"
	}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
