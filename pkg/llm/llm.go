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
// Package llm constructs the configured completion provider.
package llm

import (
	"strings"
	"time"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/llm/anthropic"
	"github.com/teradata-labs/argonaut/pkg/llm/bedrock"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// NewProvider builds the provider named by the configuration.
func NewProvider(cfg config.LLMConfig) (types.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.AnthropicModel,
			MaxTokens: int64(cfg.MaxTokens),
			Timeout:   time.Duration(cfg.Timeout) * time.Second,
		})
	case "bedrock":
		return bedrock.NewClient(bedrock.Config{
			Region:          cfg.BedrockRegion,
			AccessKeyID:     cfg.BedrockAccessKeyID,
			SecretAccessKey: cfg.BedrockSecretAccessKey,
			SessionToken:    cfg.BedrockSessionToken,
			Profile:         cfg.BedrockProfile,
			ModelID:         cfg.BedrockModelID,
			MaxTokens:       int64(cfg.MaxTokens),
		})
	default:
		return nil, types.Errorf(types.KindInvalidInput, "unsupported llm provider: %s", cfg.Provider)
	}
}
