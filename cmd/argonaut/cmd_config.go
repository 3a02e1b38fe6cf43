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
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/teradata-labs/argonaut/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Argonaut configuration",
	Long:  `Manage configuration files for the Argonaut gateway.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate example configuration file",
	Long:  `Generate an example argonaut.yaml configuration file in the data directory.`,
	Run:   runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration (merged from all sources, secrets masked).`,
	Run:   runConfigShow,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// exampleConfig mirrors the built-in defaults. Secrets are deliberately
// absent; they come from the environment or a .env file.
var exampleConfig = heredoc.Doc(`
	# Argonaut gateway configuration.
	# Priority: CLI flags > config file > environment variables > defaults
	#
	# Secrets are read from the environment (or a .env file):
	#   ANTHROPIC_API_KEY, PINECONE_API_KEY, NEO4J_PASS,
	#   ARGONAUT_TIMESERIES_PASSWORD

	server:
	  host: 0.0.0.0
	  port: 8000
	  request_timeout_seconds: 300
	  allowed_hosts: ["*"]
	  cors:
	    enabled: true
	    allowed_origins: ["*"] # restrict in production
	  rate_limit:
	    enabled: true
	    requests: 100
	    window_seconds: 60

	llm:
	  provider: anthropic # anthropic or bedrock
	  anthropic_model: claude-sonnet-4-5-20250929
	  # bedrock_region: us-west-2
	  # bedrock_model_id: us.anthropic.claude-sonnet-4-5-20250929-v1:0
	  # bedrock_profile: default
	  temperature: 0.3
	  max_tokens: 2000
	  timeout_seconds: 60

	timeseries:
	  driver: postgres # postgres, mysql, or sqlite
	  host: localhost
	  port: 26257
	  database: argo
	  user: root
	  ssl_mode: require
	  # dsn: overrides the fields above when set

	graph:
	  uri: bolt://localhost:7687
	  username: neo4j
	  database: neo4j

	vector:
	  index: argo-profiles
	  dimension: 384

	pipeline:
	  max_cycles: 3
	  quality_threshold: 0.7
	  agent_timeout_seconds: 120
	  top_k: 10
	  row_limit: 1000

	session:
	  ttl_seconds: 3600
	  max_messages: 100
	  sweep_interval_seconds: 300

	vocabulary:
	  path: "" # empty uses the built-in vocabulary
	  hot_reload: false

	logging:
	  level: info  # debug, info, warn, error
	  format: json # json or console

	metrics:
	  enabled: true
	  health_check_interval_seconds: 30
`)

func runConfigInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	configDir := config.GetDataDir()
	configPath := filepath.Join(configDir, "argonaut.yaml")

	if err := os.MkdirAll(configDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Printf("Config file already exists: %s (use --force to overwrite)\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote example configuration to %s\n", configPath)
	fmt.Println("Edit it, export your API keys, then run: argonaut serve")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	fmt.Println("Current Configuration:")
	fmt.Println("======================")
	fmt.Println()

	fmt.Println("Server:")
	fmt.Printf("  Host: %s\n", cfg.Server.Host)
	fmt.Printf("  Port: %d\n", cfg.Server.Port)
	fmt.Printf("  Request Timeout: %ds\n", cfg.Server.RequestTimeoutSeconds)
	fmt.Printf("  Rate Limit: %t (%d per %ds)\n", cfg.Server.RateLimit.Enabled, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.WindowSeconds)
	fmt.Println()

	fmt.Println("LLM:")
	fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
	switch cfg.LLM.Provider {
	case "anthropic":
		fmt.Printf("  Model: %s\n", cfg.LLM.AnthropicModel)
		fmt.Printf("  API Key: %s\n", maskSecret(cfg.LLM.AnthropicAPIKey))
	case "bedrock":
		fmt.Printf("  Model: %s\n", cfg.LLM.BedrockModelID)
		fmt.Printf("  Region: %s\n", cfg.LLM.BedrockRegion)
		if cfg.LLM.BedrockProfile != "" {
			fmt.Printf("  Profile: %s\n", cfg.LLM.BedrockProfile)
		}
	}
	fmt.Printf("  Max Tokens: %d\n", cfg.LLM.MaxTokens)
	fmt.Println()

	fmt.Println("Timeseries:")
	fmt.Printf("  Driver: %s\n", cfg.Timeseries.Driver)
	if cfg.Timeseries.DSN != "" {
		fmt.Printf("  DSN: %s\n", maskSecret(cfg.Timeseries.DSN))
	} else {
		fmt.Printf("  Host: %s:%d\n", cfg.Timeseries.Host, cfg.Timeseries.Port)
		fmt.Printf("  Database: %s\n", cfg.Timeseries.Database)
		fmt.Printf("  User: %s\n", cfg.Timeseries.User)
		fmt.Printf("  Password: %s\n", maskSecret(cfg.Timeseries.Password))
	}
	fmt.Println()

	fmt.Println("Graph:")
	fmt.Printf("  URI: %s\n", cfg.Graph.URI)
	fmt.Printf("  Username: %s\n", cfg.Graph.Username)
	fmt.Printf("  Password: %s\n", maskSecret(cfg.Graph.Password))
	fmt.Printf("  Database: %s\n", cfg.Graph.Database)
	fmt.Println()

	fmt.Println("Vector:")
	fmt.Printf("  Index: %s\n", cfg.Vector.Index)
	if cfg.Vector.Namespace != "" {
		fmt.Printf("  Namespace: %s\n", cfg.Vector.Namespace)
	}
	fmt.Printf("  Dimension: %d\n", cfg.Vector.Dimension)
	fmt.Printf("  API Key: %s\n", maskSecret(cfg.Vector.APIKey))
	fmt.Println()

	fmt.Println("Pipeline:")
	fmt.Printf("  Max Cycles: %d\n", cfg.Pipeline.MaxCycles)
	fmt.Printf("  Quality Threshold: %.2f\n", cfg.Pipeline.QualityThreshold)
	fmt.Printf("  Agent Timeout: %ds\n", cfg.Pipeline.AgentTimeoutSeconds)
	fmt.Printf("  Top K: %d\n", cfg.Pipeline.TopK)
	fmt.Printf("  Row Limit: %d\n", cfg.Pipeline.RowLimit)
	fmt.Println()

	fmt.Println("Session:")
	fmt.Printf("  TTL: %ds\n", cfg.Session.TTLSeconds)
	fmt.Printf("  Max Messages: %d\n", cfg.Session.MaxMessages)
	fmt.Println()

	fmt.Println("Vocabulary:")
	if cfg.Vocabulary.Path != "" {
		fmt.Printf("  Path: %s\n", cfg.Vocabulary.Path)
		fmt.Printf("  Hot Reload: %t\n", cfg.Vocabulary.HotReload)
	} else {
		fmt.Println("  Path: (built-in)")
	}
	fmt.Println()

	fmt.Println("Logging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
}

// maskSecret shows only the edges of a secret for verification.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
