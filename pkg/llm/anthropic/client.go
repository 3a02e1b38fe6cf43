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
package anthropic

import (
	"context"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// DefaultModel is the default Claude model.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultMaxTokens is the default maximum tokens per request.
	DefaultMaxTokens = 2000
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 60 * time.Second
)

// Client calls Anthropic's Claude API directly.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey    string
	Model     string // Default: claude-sonnet-4-5-20250929
	MaxTokens int64  // Default: 2000
	Timeout   time.Duration
}

// NewClient creates a new Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, types.Errorf(types.KindInvalidInput, "anthropic API key is required")
	}
	if cfg.Model == "" {
		if envModel := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); envModel != "" {
			cfg.Model = envModel
		} else {
			cfg.Model = DefaultModel
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	)

	return &Client{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a completion request and returns the concatenated text of
// the response.
func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	params, err := BuildParams(c.model, c.maxTokens, req)
	if err != nil {
		return "", err
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", types.WrapError(types.KindLLMUnavailable, err, "anthropic completion failed")
	}
	return TextContent(message), nil
}

// BuildParams converts a completion request into SDK message params.
func BuildParams(model string, defaultMaxTokens int64, req types.CompletionRequest) (anthropic.MessageNewParams, error) {
	sdkMessages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case types.RoleAssistant:
			sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if len(sdkMessages) == 0 {
		return anthropic.MessageNewParams{}, types.Errorf(types.KindInvalidInput, "no messages to send")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    sdkMessages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}
	return params, nil
}

// TextContent concatenates the text blocks of a response.
func TextContent(message *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// Ensure Client implements the LLMProvider interface
var _ types.LLMProvider = (*Client)(nil)
