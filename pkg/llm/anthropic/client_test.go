// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package anthropic

import (
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/argonaut/pkg/types"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))
}

func TestNewClient_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_DEFAULT_MODEL", "")

	client, err := NewClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Name())
	assert.Equal(t, DefaultModel, client.Model())
}

func TestNewClient_ModelFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_DEFAULT_MODEL", "claude-haiku-4-5")

	client, err := NewClient(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", client.Model())
}

func TestBuildParams(t *testing.T) {
	req := types.CompletionRequest{
		System:      "You are an expert oceanographer.",
		Temperature: 0.3,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "show temperature for float 7902073"},
			{Role: types.RoleAssistant, Content: "Here are the measurements."},
			{Role: types.RoleUser, Content: "and salinity?"},
		},
	}

	params, err := BuildParams("claude-sonnet-4-5-20250929", 2000, req)
	require.NoError(t, err)

	assert.Equal(t, anthropic.Model("claude-sonnet-4-5-20250929"), params.Model)
	assert.Equal(t, int64(2000), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "You are an expert oceanographer.", params.System[0].Text)

	require.Len(t, params.Messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, params.Messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, params.Messages[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, params.Messages[2].Role)
}

func TestBuildParams_ZeroTemperatureIsExplicit(t *testing.T) {
	req := types.CompletionRequest{
		Temperature: 0,
		Messages:    []types.Message{{Role: types.RoleUser, Content: "classify this"}},
	}

	params, err := BuildParams(DefaultModel, 2000, req)
	require.NoError(t, err)
	require.True(t, params.Temperature.Valid())
	assert.Equal(t, float64(0), params.Temperature.Value)
}

func TestBuildParams_MaxTokensOverride(t *testing.T) {
	req := types.CompletionRequest{
		MaxTokens: 500,
		Messages:  []types.Message{{Role: types.RoleUser, Content: "q"}},
	}

	params, err := BuildParams(DefaultModel, 2000, req)
	require.NoError(t, err)
	assert.Equal(t, int64(500), params.MaxTokens)
}

func TestBuildParams_EmptyMessages(t *testing.T) {
	_, err := BuildParams(DefaultModel, 2000, types.CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))

	// Messages with empty content are skipped, not sent.
	_, err = BuildParams(DefaultModel, 2000, types.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: ""}},
	})
	require.Error(t, err)
}

func TestTextContent(t *testing.T) {
	message := &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "The Arabian Sea "},
			{Type: "tool_use"},
			{Type: "text", Text: "shows strong warming."},
		},
	}

	assert.Equal(t, "The Arabian Sea shows strong warming.", TextContent(message))
}
