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
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                  "0.0.0.0",
			Port:                  8000,
			RequestTimeoutSeconds: 300,
		},
		LLM: LLMConfig{
			Provider:        "anthropic",
			AnthropicAPIKey: "sk-test",
			AnthropicModel:  "claude-sonnet-4-5-20250929",
		},
		Timeseries: TimeseriesConfig{
			Driver: "postgres",
			Host:   "localhost",
		},
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
		},
		Vector: VectorConfig{
			APIKey: "pc-test",
			Index:  "argo-profiles",
		},
		Pipeline: PipelineConfig{
			MaxCycles:        3,
			QualityThreshold: 0.7,
		},
		Session: SessionConfig{
			TTLSeconds:  3600,
			MaxMessages: 100,
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("ARGONAUT_DATA_DIR", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, 300, config.Server.RequestTimeoutSeconds)
	assert.Equal(t, []string{"*"}, config.Server.AllowedHosts)
	assert.True(t, config.Server.RateLimit.Enabled)
	assert.Equal(t, 100, config.Server.RateLimit.Requests)
	assert.Equal(t, 60, config.Server.RateLimit.WindowSeconds)

	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.InDelta(t, 0.3, config.LLM.Temperature, 1e-9)

	assert.Equal(t, "postgres", config.Timeseries.Driver)
	assert.Equal(t, 26257, config.Timeseries.Port)

	assert.Equal(t, "bolt://localhost:7687", config.Graph.URI)
	assert.Equal(t, "argo-profiles", config.Vector.Index)
	assert.Equal(t, 384, config.Vector.Dimension)

	assert.Equal(t, 3, config.Pipeline.MaxCycles)
	assert.InDelta(t, 0.7, config.Pipeline.QualityThreshold, 1e-9)
	assert.Equal(t, 120, config.Pipeline.AgentTimeoutSeconds)
	assert.Equal(t, 10, config.Pipeline.TopK)
	assert.Equal(t, 1000, config.Pipeline.RowLimit)

	assert.Equal(t, 3600, config.Session.TTLSeconds)
	assert.Equal(t, 100, config.Session.MaxMessages)
	assert.Equal(t, 300, config.Session.SweepIntervalSeconds)
}

func TestLoadConfig_FromFile(t *testing.T) {
	viper.Reset()
	t.Setenv("ARGONAUT_DATA_DIR", t.TempDir())

	path := filepath.Join(t.TempDir(), "argonaut.yaml")
	content := `server:
  port: 9090
pipeline:
  max_cycles: 5
  quality_threshold: 0.8
timeseries:
  driver: sqlite
  database: ./argo.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 5, config.Pipeline.MaxCycles)
	assert.InDelta(t, 0.8, config.Pipeline.QualityThreshold, 1e-9)
	assert.Equal(t, "sqlite", config.Timeseries.Driver)

	// Defaults still apply for untouched keys
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 3600, config.Session.TTLSeconds)
}

func TestLoadConfig_LegacyEnvVars(t *testing.T) {
	viper.Reset()
	t.Setenv("ARGONAUT_DATA_DIR", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("PINECONE_API_KEY", "pc-from-env")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CYCLES", "5")
	t.Setenv("QUALITY_THRESHOLD", "0.8")
	t.Setenv("SESSION_TIMEOUT", "7200")
	t.Setenv("RATE_LIMIT_CALLS", "42")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "DEBUG")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", config.LLM.AnthropicAPIKey)
	assert.Equal(t, "bolt://graph:7687", config.Graph.URI)
	assert.Equal(t, "pc-from-env", config.Vector.APIKey)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 5, config.Pipeline.MaxCycles)
	assert.Equal(t, 0.8, config.Pipeline.QualityThreshold)
	assert.Equal(t, 7200, config.Session.TTLSeconds)
	assert.Equal(t, 42, config.Server.RateLimit.Requests)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.Server.CORS.AllowedOrigins)
	assert.Equal(t, "DEBUG", config.Logging.Level)
}

// The prefixed form wins when a setting arrives under both names.
func TestLoadConfig_PrefixedEnvWins(t *testing.T) {
	viper.Reset()
	t.Setenv("ARGONAUT_DATA_DIR", t.TempDir())
	t.Setenv("SESSION_TIMEOUT", "7200")
	t.Setenv("ARGONAUT_SESSION_TTL_SECONDS", "1800")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 1800, config.Session.TTLSeconds)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("invalid port", func(t *testing.T) {
		config := validConfig()
		config.Server.Port = 0
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid port")
	})

	t.Run("request timeout out of range", func(t *testing.T) {
		config := validConfig()
		config.Server.RequestTimeoutSeconds = 10
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request timeout")

		config.Server.RequestTimeoutSeconds = 700
		require.Error(t, config.Validate())
	})

	t.Run("missing anthropic key", func(t *testing.T) {
		config := validConfig()
		config.LLM.AnthropicAPIKey = ""
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anthropic API key is required")
	})

	t.Run("bedrock needs only a region", func(t *testing.T) {
		config := validConfig()
		config.LLM.Provider = "bedrock"
		config.LLM.AnthropicAPIKey = ""
		config.LLM.BedrockRegion = "us-west-2"
		require.NoError(t, config.Validate())

		config.LLM.BedrockRegion = ""
		require.Error(t, config.Validate())
	})

	t.Run("unsupported provider", func(t *testing.T) {
		config := validConfig()
		config.LLM.Provider = "ollama"
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM provider")
	})

	t.Run("unsupported timeseries driver", func(t *testing.T) {
		config := validConfig()
		config.Timeseries.Driver = "oracle"
		err := config.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported timeseries driver")
	})

	t.Run("sqlite needs a database path", func(t *testing.T) {
		config := validConfig()
		config.Timeseries.Driver = "sqlite"
		config.Timeseries.Host = ""
		config.Timeseries.Database = ""
		require.Error(t, config.Validate())

		config.Timeseries.Database = "./argo.db"
		require.NoError(t, config.Validate())
	})

	t.Run("missing graph uri", func(t *testing.T) {
		config := validConfig()
		config.Graph.URI = ""
		require.Error(t, config.Validate())
	})

	t.Run("missing vector credentials", func(t *testing.T) {
		config := validConfig()
		config.Vector.APIKey = ""
		require.Error(t, config.Validate())

		config = validConfig()
		config.Vector.Index = ""
		require.Error(t, config.Validate())
	})

	t.Run("max cycles out of range", func(t *testing.T) {
		config := validConfig()
		config.Pipeline.MaxCycles = 0
		require.Error(t, config.Validate())

		config.Pipeline.MaxCycles = 11
		require.Error(t, config.Validate())
	})

	t.Run("quality threshold out of range", func(t *testing.T) {
		config := validConfig()
		config.Pipeline.QualityThreshold = 1.5
		require.Error(t, config.Validate())

		config.Pipeline.QualityThreshold = -0.1
		require.Error(t, config.Validate())
	})
}
