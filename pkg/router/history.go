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

package router

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// historyTurns bounds how many prior messages accompany an LLM call.
	historyTurns = 8
	// historyTokenBudget bounds the same window by token count, oldest
	// turns dropped first.
	historyTokenBudget = 1200
	// messageOverheadTokens approximates per-message framing cost.
	messageOverheadTokens = 4
)

// TokenCounter counts tokens with the cl100k_base encoding, a close
// approximation for Claude models. When the encoding tables cannot be
// loaded it estimates at four characters per token.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	sharedTokenCounter *TokenCounter
	counterInitOnce    sync.Once
)

// NewTokenCounter returns the process-wide counter; the encoding tables
// load once.
func NewTokenCounter() *TokenCounter {
	counterInitOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			sharedTokenCounter = &TokenCounter{}
			return
		}
		sharedTokenCounter = &TokenCounter{encoder: enc}
	})
	return sharedTokenCounter
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	if tc.encoder == nil {
		return len(text) / 4
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// historyWindow returns the most recent turns that fit both the turn and
// token budgets, oldest first, never starting on an assistant turn.
func (r *Router) historyWindow(history []types.Message) []types.Message {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	spent := 0
	keepFrom := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := r.counter.Count(history[i].Content) + messageOverheadTokens
		if spent+cost > historyTokenBudget {
			keepFrom = i + 1
			break
		}
		spent += cost
	}

	kept := history[keepFrom:]
	for len(kept) > 0 && kept[0].Role != types.RoleUser {
		kept = kept[1:]
	}

	out := make([]types.Message, len(kept))
	copy(out, kept)
	return out
}
