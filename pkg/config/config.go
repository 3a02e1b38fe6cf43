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
// Package config loads and validates the argonaut gateway configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is the name of the config file
const DefaultConfigFileName = "argonaut"

// Config holds all configuration for the argonaut gateway.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	// DataDir is the argonaut data directory (computed from ARGONAUT_DATA_DIR
	// env var or ~/.argonaut). Set during config initialization, read-only.
	DataDir string `mapstructure:"-"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Timeseries store configuration (SQL measurement database)
	Timeseries TimeseriesConfig `mapstructure:"timeseries"`

	// Graph store configuration (Neo4j metadata database)
	Graph GraphConfig `mapstructure:"graph"`

	// Vector store configuration (Pinecone similarity index)
	Vector VectorConfig `mapstructure:"vector"`

	// Pipeline configuration (cyclic analysis loop)
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Session configuration (conversation store)
	Session SessionConfig `mapstructure:"session"`

	// Vocabulary configuration (region and parameter vocabulary file)
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// RequestTimeoutSeconds bounds one chat request end to end (30-600)
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`

	// ReadTimeoutSeconds bounds reading the request; writes are unbounded
	// because SSE streams stay open
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds"`
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds"`

	// AllowedHosts restricts the Host header; ["*"] disables the check
	AllowedHosts []string `mapstructure:"allowed_hosts"`

	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// CORSConfig holds CORS configuration for HTTP endpoints.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig holds sliding-window rate limit configuration.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Requests allowed per client within the window
	Requests int `mapstructure:"requests"`

	// WindowSeconds is the sliding window length
	WindowSeconds int `mapstructure:"window_seconds"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // anthropic, bedrock

	// Anthropic-specific
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"` // From CLI/env only
	AnthropicModel  string `mapstructure:"anthropic_model"`

	// Bedrock-specific
	BedrockRegion          string `mapstructure:"bedrock_region"`
	BedrockAccessKeyID     string `mapstructure:"bedrock_access_key_id"`     // From CLI/env only
	BedrockSecretAccessKey string `mapstructure:"bedrock_secret_access_key"` // From CLI/env only
	BedrockSessionToken    string `mapstructure:"bedrock_session_token"`     // From CLI/env only
	BedrockProfile         string `mapstructure:"bedrock_profile"`
	BedrockModelID         string `mapstructure:"bedrock_model_id"`

	// Common generation parameters
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout_seconds"`
}

// TimeseriesConfig holds the SQL measurement store configuration.
type TimeseriesConfig struct {
	// Driver selects the SQL dialect: postgres, mysql, sqlite
	Driver string `mapstructure:"driver"`

	// DSN is the full connection string; when set it overrides the
	// individual fields below
	DSN string `mapstructure:"dsn"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"` // From CLI/env only
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	QueryTimeoutSeconds    int `mapstructure:"query_timeout_seconds"`
}

// GraphConfig holds the Neo4j metadata store configuration.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"` // From CLI/env only
	Database string `mapstructure:"database"`
}

// VectorConfig holds the Pinecone similarity index configuration.
type VectorConfig struct {
	APIKey    string `mapstructure:"api_key"` // From CLI/env only
	Index     string `mapstructure:"index"`
	Namespace string `mapstructure:"namespace"`

	// Dimension of stored profile embeddings
	Dimension int `mapstructure:"dimension"`
}

// PipelineConfig holds the cyclic analysis loop configuration.
type PipelineConfig struct {
	// MaxCycles caps refinement; the loop runs at most MaxCycles+1 executions
	MaxCycles int `mapstructure:"max_cycles"`

	// QualityThreshold is the minimum overall score that stops refinement
	QualityThreshold float64 `mapstructure:"quality_threshold"`

	// AgentTimeoutSeconds bounds one specialist agent execution
	AgentTimeoutSeconds int `mapstructure:"agent_timeout_seconds"`

	// TopK is the default similarity search depth
	TopK int `mapstructure:"top_k"`

	// RowLimit is the default cap on measurement rows per query
	RowLimit int `mapstructure:"row_limit"`
}

// SessionConfig holds the conversation store configuration.
type SessionConfig struct {
	// TTLSeconds expires sessions idle longer than this
	TTLSeconds int `mapstructure:"ttl_seconds"`

	// MaxMessages caps stored messages per session, oldest dropped first
	MaxMessages int `mapstructure:"max_messages"`

	// SweepIntervalSeconds is how often expired sessions are evicted
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// VocabularyConfig points at the region/parameter vocabulary file.
type VocabularyConfig struct {
	// Path to the vocabulary YAML; empty uses the built-in vocabulary
	Path string `mapstructure:"path"`

	// HotReload reloads the vocabulary when the file changes
	HotReload bool `mapstructure:"hot_reload"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// HealthCheckIntervalSeconds is how often backend health is probed
	HealthCheckIntervalSeconds int `mapstructure:"health_check_interval_seconds"`
}

// LoadConfig loads configuration from multiple sources with proper priority:
// 1. Command line flags (highest priority)
// 2. Config file
// 3. Environment variables
// 4. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in standard locations
		viper.AddConfigPath(GetDataDir()) // Data directory (respects ARGONAUT_DATA_DIR)
		viper.AddConfigPath(".")          // Current directory
		viper.AddConfigPath("/etc/argonaut/")
		viper.SetConfigName(DefaultConfigFileName) // argonaut.yaml
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	viper.SetEnvPrefix("ARGONAUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DataDir = GetDataDir()

	return &config, nil
}

// bindLegacyEnv binds the unprefixed environment variables the deployment
// scripts already export, so SESSION_TIMEOUT and ANTHROPIC_API_KEY work
// alongside ARGONAUT_SESSION_TTL_SECONDS and ARGONAUT_LLM_ANTHROPIC_API_KEY.
// The prefixed name wins when both are set.
func bindLegacyEnv() {
	_ = viper.BindEnv("server.host", "ARGONAUT_SERVER_HOST", "HOST")
	_ = viper.BindEnv("server.port", "ARGONAUT_SERVER_PORT", "PORT")
	_ = viper.BindEnv("server.allowed_hosts", "ARGONAUT_SERVER_ALLOWED_HOSTS", "ALLOWED_HOSTS")
	_ = viper.BindEnv("server.cors.allowed_origins", "ARGONAUT_SERVER_CORS_ALLOWED_ORIGINS", "CORS_ORIGINS")
	_ = viper.BindEnv("server.rate_limit.enabled", "ARGONAUT_SERVER_RATE_LIMIT_ENABLED", "ENABLE_RATE_LIMITING")
	_ = viper.BindEnv("server.rate_limit.requests", "ARGONAUT_SERVER_RATE_LIMIT_REQUESTS", "RATE_LIMIT_CALLS")
	_ = viper.BindEnv("server.rate_limit.window_seconds", "ARGONAUT_SERVER_RATE_LIMIT_WINDOW_SECONDS", "RATE_LIMIT_PERIOD")
	_ = viper.BindEnv("llm.provider", "ARGONAUT_LLM_PROVIDER", "LLM_PROVIDER")
	_ = viper.BindEnv("llm.anthropic_api_key", "ARGONAUT_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("llm.anthropic_model", "ARGONAUT_LLM_ANTHROPIC_MODEL", "LLM_MODEL")
	_ = viper.BindEnv("llm.bedrock_region", "ARGONAUT_LLM_BEDROCK_REGION", "AWS_REGION")
	_ = viper.BindEnv("timeseries.dsn", "ARGONAUT_TIMESERIES_DSN", "DATABASE_URL")
	_ = viper.BindEnv("graph.uri", "ARGONAUT_GRAPH_URI", "NEO4J_URI")
	_ = viper.BindEnv("graph.username", "ARGONAUT_GRAPH_USERNAME", "NEO4J_USER")
	_ = viper.BindEnv("graph.password", "ARGONAUT_GRAPH_PASSWORD", "NEO4J_PASS")
	_ = viper.BindEnv("vector.api_key", "ARGONAUT_VECTOR_API_KEY", "PINECONE_API_KEY")
	_ = viper.BindEnv("vector.index", "ARGONAUT_VECTOR_INDEX", "PINECONE_INDEX")
	_ = viper.BindEnv("pipeline.max_cycles", "ARGONAUT_PIPELINE_MAX_CYCLES", "MAX_CYCLES")
	_ = viper.BindEnv("pipeline.quality_threshold", "ARGONAUT_PIPELINE_QUALITY_THRESHOLD", "QUALITY_THRESHOLD")
	_ = viper.BindEnv("pipeline.agent_timeout_seconds", "ARGONAUT_PIPELINE_AGENT_TIMEOUT_SECONDS", "AGENT_TIMEOUT")
	_ = viper.BindEnv("session.ttl_seconds", "ARGONAUT_SESSION_TTL_SECONDS", "SESSION_TIMEOUT")
	_ = viper.BindEnv("session.max_messages", "ARGONAUT_SESSION_MAX_MESSAGES", "MAX_MESSAGES_PER_SESSION")
	_ = viper.BindEnv("session.sweep_interval_seconds", "ARGONAUT_SESSION_SWEEP_INTERVAL_SECONDS", "SESSION_CLEANUP_INTERVAL")
	_ = viper.BindEnv("logging.level", "ARGONAUT_LOGGING_LEVEL", "LOG_LEVEL")
	_ = viper.BindEnv("logging.format", "ARGONAUT_LOGGING_FORMAT", "LOG_FORMAT")
	_ = viper.BindEnv("metrics.enabled", "ARGONAUT_METRICS_ENABLED", "ENABLE_METRICS")
	_ = viper.BindEnv("metrics.health_check_interval_seconds", "ARGONAUT_METRICS_HEALTH_CHECK_INTERVAL_SECONDS", "HEALTH_CHECK_INTERVAL")
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.request_timeout_seconds", 300)
	viper.SetDefault("server.read_timeout_seconds", 30)
	viper.SetDefault("server.idle_timeout_seconds", 120)
	viper.SetDefault("server.allowed_hosts", []string{"*"})

	// CORS defaults (permissive for development, MUST be configured for production)
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("server.cors.allowed_headers", []string{"*"})
	viper.SetDefault("server.cors.allow_credentials", false)
	viper.SetDefault("server.cors.max_age", 86400)

	// Rate limit defaults
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.requests", 100)
	viper.SetDefault("server.rate_limit.window_seconds", 60)

	// LLM defaults
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.anthropic_model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("llm.bedrock_region", "us-west-2")
	viper.SetDefault("llm.bedrock_model_id", "us.anthropic.claude-sonnet-4-5-20250929-v1:0") // Cross-region inference profile
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 2000)
	viper.SetDefault("llm.timeout_seconds", 60)

	// Timeseries defaults
	viper.SetDefault("timeseries.driver", "postgres")
	viper.SetDefault("timeseries.host", "localhost")
	viper.SetDefault("timeseries.port", 26257)
	viper.SetDefault("timeseries.database", "argo")
	viper.SetDefault("timeseries.user", "root")
	viper.SetDefault("timeseries.ssl_mode", "require")
	viper.SetDefault("timeseries.max_open_conns", 25)
	viper.SetDefault("timeseries.max_idle_conns", 5)
	viper.SetDefault("timeseries.conn_max_lifetime_seconds", 300)
	viper.SetDefault("timeseries.query_timeout_seconds", 30)

	// Graph defaults
	viper.SetDefault("graph.uri", "bolt://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.database", "neo4j")

	// Vector defaults
	viper.SetDefault("vector.index", "argo-profiles")
	viper.SetDefault("vector.namespace", "")
	viper.SetDefault("vector.dimension", 384)

	// Pipeline defaults
	viper.SetDefault("pipeline.max_cycles", 3)
	viper.SetDefault("pipeline.quality_threshold", 0.7)
	viper.SetDefault("pipeline.agent_timeout_seconds", 120)
	viper.SetDefault("pipeline.top_k", 10)
	viper.SetDefault("pipeline.row_limit", 1000)

	// Session defaults
	viper.SetDefault("session.ttl_seconds", 3600)
	viper.SetDefault("session.max_messages", 100)
	viper.SetDefault("session.sweep_interval_seconds", 300)

	// Vocabulary defaults
	viper.SetDefault("vocabulary.path", "")
	viper.SetDefault("vocabulary.hot_reload", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.health_check_interval_seconds", 30)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.RequestTimeoutSeconds < 30 || c.Server.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("invalid request timeout: %d (must be 30-600 seconds)", c.Server.RequestTimeoutSeconds)
	}

	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic API key is required (set llm.anthropic_api_key in config or ANTHROPIC_API_KEY env var)")
		}
	case "bedrock":
		if c.LLM.BedrockRegion == "" {
			return fmt.Errorf("bedrock region is required (set llm.bedrock_region in config or ARGONAUT_LLM_BEDROCK_REGION env var)")
		}
		// Explicit credentials are optional: AWS profiles, IAM roles, and
		// the default credentials chain all work without them.
	default:
		return fmt.Errorf("unsupported LLM provider: %s (must be anthropic or bedrock)", c.LLM.Provider)
	}

	switch c.Timeseries.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported timeseries driver: %s (must be postgres, mysql, or sqlite)", c.Timeseries.Driver)
	}
	if c.Timeseries.Driver == "sqlite" {
		if c.Timeseries.DSN == "" && c.Timeseries.Database == "" {
			return fmt.Errorf("timeseries.database is required for the sqlite driver")
		}
	} else if c.Timeseries.DSN == "" && c.Timeseries.Host == "" {
		return fmt.Errorf("timeseries.host or timeseries.dsn is required")
	}

	if c.Graph.URI == "" {
		return fmt.Errorf("graph.uri is required (set NEO4J_URI env var)")
	}

	if c.Vector.APIKey == "" {
		return fmt.Errorf("vector API key is required (set vector.api_key in config or PINECONE_API_KEY env var)")
	}
	if c.Vector.Index == "" {
		return fmt.Errorf("vector.index is required (set PINECONE_INDEX env var)")
	}

	if c.Pipeline.MaxCycles < 1 || c.Pipeline.MaxCycles > 10 {
		return fmt.Errorf("invalid pipeline.max_cycles: %d (must be 1-10)", c.Pipeline.MaxCycles)
	}
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 1 {
		return fmt.Errorf("invalid pipeline.quality_threshold: %f (must be 0.0-1.0)", c.Pipeline.QualityThreshold)
	}

	if c.Session.TTLSeconds < 1 {
		return fmt.Errorf("invalid session.ttl_seconds: %d (must be positive)", c.Session.TTLSeconds)
	}
	if c.Session.MaxMessages < 1 {
		return fmt.Errorf("invalid session.max_messages: %d (must be positive)", c.Session.MaxMessages)
	}

	return nil
}
