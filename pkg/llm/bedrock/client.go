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
package bedrock

import (
	"context"
	"fmt"
	"os"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	argoanthropic "github.com/teradata-labs/argonaut/pkg/llm/anthropic"
	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// DefaultModelID is the default Claude model on Bedrock.
	DefaultModelID = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	// DefaultRegion is the default AWS region.
	DefaultRegion = "us-west-2"
	// DefaultMaxTokens is the default maximum tokens per request.
	DefaultMaxTokens = 2000
)

// Client calls Claude through AWS Bedrock using the Anthropic SDK. The
// bedrock backend handles AWS signing and endpoint configuration.
type Client struct {
	client    anthropic.Client
	modelID   string
	region    string
	maxTokens int64
}

// Config holds configuration for the Bedrock client.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string
	ModelID         string // Default: us.anthropic.claude-sonnet-4-5-20250929-v1:0
	MaxTokens       int64  // Default: 2000
}

// NewClient creates a new Bedrock client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ModelID == "" {
		if envModel := os.Getenv("AWS_BEDROCK_MODEL_ID"); envModel != "" {
			cfg.ModelID = envModel
		} else {
			cfg.ModelID = DefaultModelID
		}
	}
	if cfg.Region == "" {
		if envRegion := os.Getenv("AWS_DEFAULT_REGION"); envRegion != "" {
			cfg.Region = envRegion
		} else {
			cfg.Region = DefaultRegion
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var awsCfg aws.Config
	var err error

	// Option 1: Explicit credentials provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			)),
		)
	} else if cfg.Profile != "" {
		// Option 2: Use named profile
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	} else {
		// Option 3: Use default credentials chain (IAM role, env vars, profile)
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := anthropic.NewClient(
		bedrock.WithConfig(awsCfg),
	)

	return &Client{
		client:    client,
		modelID:   cfg.ModelID,
		region:    cfg.Region,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "bedrock"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.modelID
}

// Complete sends a completion request and returns the concatenated text of
// the response.
func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	params, err := argoanthropic.BuildParams(c.modelID, c.maxTokens, req)
	if err != nil {
		return "", err
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", types.WrapError(types.KindLLMUnavailable, err, "bedrock completion failed")
	}
	return argoanthropic.TextContent(message), nil
}

// Ensure Client implements the LLMProvider interface
var _ types.LLMProvider = (*Client)(nil)
