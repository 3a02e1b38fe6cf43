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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teradata-labs/argonaut/internal/version"
	"github.com/teradata-labs/argonaut/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "argonaut",
	Short:   "Argonaut - Multi-agent query gateway for Argo float data",
	Long:    `Argonaut answers natural-language questions about Argo ocean floats by routing them through a cyclic multi-agent pipeline over SQL measurements, a Neo4j deployment graph, and Pinecone profile embeddings.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ARGONAUT_DATA_DIR/argonaut.yaml)")

	// Server flags
	rootCmd.PersistentFlags().String("host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("port", 8000, "HTTP server port")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-provider", "anthropic", "LLM provider (anthropic, bedrock)")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or use env)")
	rootCmd.PersistentFlags().String("anthropic-model", "claude-sonnet-4-5-20250929", "Anthropic model")
	rootCmd.PersistentFlags().String("bedrock-region", "us-west-2", "AWS Bedrock region")
	rootCmd.PersistentFlags().String("bedrock-profile", "", "AWS profile for Bedrock credentials")

	// Backend flags
	rootCmd.PersistentFlags().String("timeseries-dsn", "", "measurement database DSN (overrides host/port/database)")
	rootCmd.PersistentFlags().String("timeseries-password", "", "measurement database password (or use env)")
	rootCmd.PersistentFlags().String("graph-uri", "bolt://localhost:7687", "Neo4j bolt URI")
	rootCmd.PersistentFlags().String("graph-password", "", "Neo4j password (or use env)")
	rootCmd.PersistentFlags().String("pinecone-key", "", "Pinecone API key (or use env)")

	// Vocabulary flags
	rootCmd.PersistentFlags().String("vocabulary", "", "vocabulary YAML path (default: built-in)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))

	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("llm.anthropic_model", rootCmd.PersistentFlags().Lookup("anthropic-model"))
	_ = viper.BindPFlag("llm.bedrock_region", rootCmd.PersistentFlags().Lookup("bedrock-region"))
	_ = viper.BindPFlag("llm.bedrock_profile", rootCmd.PersistentFlags().Lookup("bedrock-profile"))

	_ = viper.BindPFlag("timeseries.dsn", rootCmd.PersistentFlags().Lookup("timeseries-dsn"))
	_ = viper.BindPFlag("timeseries.password", rootCmd.PersistentFlags().Lookup("timeseries-password"))
	_ = viper.BindPFlag("graph.uri", rootCmd.PersistentFlags().Lookup("graph-uri"))
	_ = viper.BindPFlag("graph.password", rootCmd.PersistentFlags().Lookup("graph-password"))
	_ = viper.BindPFlag("vector.api_key", rootCmd.PersistentFlags().Lookup("pinecone-key"))

	_ = viper.BindPFlag("vocabulary.path", rootCmd.PersistentFlags().Lookup("vocabulary"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env next to the binary supplies secrets in development; variables
	// already set in the environment win.
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
