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
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teradata-labs/argonaut/internal/log"
	"github.com/teradata-labs/argonaut/pkg/agents"
	"github.com/teradata-labs/argonaut/pkg/backends/graphstore"
	"github.com/teradata-labs/argonaut/pkg/backends/timeseries"
	"github.com/teradata-labs/argonaut/pkg/backends/vectorstore"
	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/llm"
	"github.com/teradata-labs/argonaut/pkg/observability"
	"github.com/teradata-labs/argonaut/pkg/orchestration"
	"github.com/teradata-labs/argonaut/pkg/router"
	"github.com/teradata-labs/argonaut/pkg/server"
	"github.com/teradata-labs/argonaut/pkg/session"
	"github.com/teradata-labs/argonaut/pkg/types"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Argonaut HTTP gateway",
	Long: `Start the Argonaut gateway with the REST and SSE API.

The server will:
- Connect the timeseries, graph, and vector backends
- Initialize the configured LLM provider
- Run the multi-agent pipeline behind the chat endpoints
- Serve session, health, and metrics APIs

Press Ctrl+C to gracefully shutdown.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	logger := log.Named("main")
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Argonaut gateway", zap.String("version", rootCmd.Version))

	// Show actual config file used (not just the --config flag)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Info("Config file loaded", zap.String("path", used))
	} else {
		logger.Info("No config file found", zap.String("searched", "$ARGONAUT_DATA_DIR/argonaut.yaml, ./argonaut.yaml, /etc/argonaut/argonaut.yaml"))
		logger.Info("Using defaults + environment variables")
	}

	// Vocabulary drives intent parsing and session context extraction.
	registry, err := config.NewVocabularyRegistry(cfg.Vocabulary, log.Named("vocabulary"))
	if err != nil {
		logger.Fatal("Failed to load vocabulary", zap.Error(err))
	}
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if cfg.Vocabulary.HotReload {
		if err := registry.Watch(watchCtx); err != nil {
			logger.Warn("Vocabulary hot reload unavailable", zap.Error(err))
		}
	}

	// Backend stores. Construction does not dial; failures surface through
	// the preflight check and the health endpoints.
	tsdb, err := timeseries.New(cfg.Timeseries, log.Named("timeseries"))
	if err != nil {
		logger.Fatal("Failed to configure timeseries store", zap.Error(err))
	}
	graphdb, err := graphstore.New(cfg.Graph, log.Named("graph"))
	if err != nil {
		logger.Fatal("Failed to configure graph store", zap.Error(err))
	}
	vectordb, err := vectorstore.New(cfg.Vector, log.Named("vector"))
	if err != nil {
		logger.Fatal("Failed to configure vector store", zap.Error(err))
	}
	logger.Info("Backends configured",
		zap.String("timeseries", cfg.Timeseries.Driver),
		zap.String("graph", cfg.Graph.URI),
		zap.String("vector", cfg.Vector.Index))

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	logger.Info("LLM provider ready",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))

	// Specialist agents and the refinement pipeline around them.
	regionFor := func(b types.BoundingBox) string {
		return registry.Current().RegionForBounds(b)
	}
	runners := []orchestration.AgentRunner{
		agents.NewMeasurementAgent(tsdb, provider, cfg.Pipeline.RowLimit, log.Named("measurement")),
		agents.NewMetadataAgent(graphdb, provider, log.Named("metadata")),
		agents.NewSemanticAgent(vectordb, regionFor, cfg.Pipeline.TopK, 0, log.Named("semantic")),
	}
	pipeline := orchestration.New(
		orchestration.NewParser(registry),
		runners,
		agents.NewCoordinator(provider, log.Named("coordinator")),
		orchestration.Config{
			MaxCycles:        cfg.Pipeline.MaxCycles,
			QualityThreshold: cfg.Pipeline.QualityThreshold,
			AgentTimeout:     time.Duration(cfg.Pipeline.AgentTimeoutSeconds) * time.Second,
		},
		log.Named("pipeline"),
	)
	logger.Info("Pipeline configured",
		zap.Int("max_cycles", cfg.Pipeline.MaxCycles),
		zap.Float64("quality_threshold", cfg.Pipeline.QualityThreshold),
		zap.Int("agent_timeout_seconds", cfg.Pipeline.AgentTimeoutSeconds))

	queryRouter := router.New(provider, pipeline, log.Named("router"))

	sessions := session.NewStore(session.Options{
		TTL:           time.Duration(cfg.Session.TTLSeconds) * time.Second,
		MaxMessages:   cfg.Session.MaxMessages,
		SweepInterval: time.Duration(cfg.Session.SweepIntervalSeconds) * time.Second,
		Vocabulary:    registry.Current(),
		Logger:        log.Named("session"),
	})
	if err := sessions.Start(); err != nil {
		logger.Fatal("Failed to start session store", zap.Error(err))
	}

	metrics := observability.New(observability.Options{
		ActiveSessions: func() int { return sessions.Stats().ActiveSessions },
	})

	// The llm probe issues a one-token completion, so readiness tracks
	// real provider availability. Probe frequency is bounded by the
	// metrics.health_check_interval_seconds cache.
	checkers := []server.ComponentChecker{
		{Name: "timeseries", Check: tsdb.Ping},
		{Name: "graph", Check: graphdb.Ping},
		{Name: "vector", Check: vectordb.Ping},
		{Name: "llm", Check: func(ctx context.Context) error {
			_, err := provider.Complete(ctx, types.CompletionRequest{
				Messages:  []types.Message{{Role: types.RoleUser, Content: "ping"}},
				MaxTokens: 1,
			})
			return err
		}},
		{Name: "sessions", Check: func(ctx context.Context) error {
			sessions.Stats()
			return nil
		}},
	}

	srv, err := server.New(server.Options{
		Config:     cfg.Server,
		Pipeline:   cfg.Pipeline,
		Monitoring: cfg.Metrics,
		Router:     queryRouter,
		Sessions:   sessions,
		Metrics:    metrics,
		Checkers:   checkers,
		Logger:     log.Named("server"),
	})
	if err != nil {
		logger.Fatal("Failed to build HTTP server", zap.Error(err))
	}

	// Startup continues when backends are down; the pipeline degrades and
	// the health endpoints report which components are out.
	if err := server.ValidateComponents(context.Background(), checkers, logger); err != nil {
		logger.Warn("Backend preflight failed, starting degraded", zap.Error(err))
	}

	logger.Info("Ready to dive!")

	// Handle graceful shutdown
	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
		<-sigch
		logger.Info("Shutting down gracefully... (press Ctrl+C again to force)")

		// Second Ctrl+C forces shutdown
		go func() {
			<-sigch
			logger.Warn("Force shutdown requested")
			os.Exit(1)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Warn("Error stopping HTTP server", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	// Start returned, so in-flight requests have drained.
	cancelWatch()
	if err := registry.Stop(); err != nil {
		logger.Warn("Error stopping vocabulary watcher", zap.Error(err))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	sessions.Stop(stopCtx)

	if err := tsdb.Close(); err != nil {
		logger.Warn("Error closing timeseries store", zap.Error(err))
	}
	if err := graphdb.Close(stopCtx); err != nil {
		logger.Warn("Error closing graph store", zap.Error(err))
	}
	if err := vectordb.Close(); err != nil {
		logger.Warn("Error closing vector store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
