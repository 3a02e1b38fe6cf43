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
package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// DefaultTopK is the similarity result count before broadening.
	DefaultTopK = 10

	// maxTopK caps the broadened result count.
	maxTopK = 20

	// topMatchCount is how many hits the summary payload highlights.
	topMatchCount = 5
)

// VectorStore is the slice of the vector adapter the semantic agent uses.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, topK int, filters types.SemanticFilters, minScore float64) ([]types.SemanticHit, error)
}

// SemanticAgent finds profiles similar to the query text.
type SemanticAgent struct {
	store     VectorStore
	regionFor func(types.BoundingBox) string
	topK      int
	minScore  float64
	logger    *zap.Logger
}

// NewSemanticAgent builds the agent. regionFor maps a bounding box to a
// canonical region name and may be nil. topK <= 0 selects DefaultTopK.
func NewSemanticAgent(store VectorStore, regionFor func(types.BoundingBox) string, topK int, minScore float64, logger *zap.Logger) *SemanticAgent {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore < 0 {
		minScore = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticAgent{store: store, regionFor: regionFor, topK: topK, minScore: minScore, logger: logger}
}

// Kind identifies the agent.
func (a *SemanticAgent) Kind() types.AgentKind {
	return types.AgentSemantic
}

// Run executes one similarity search for the given intent.
func (a *SemanticAgent) Run(ctx context.Context, query string, intent types.Intent) Result {
	start := time.Now()

	vector := EmbedQuery(query)

	topK := a.topK
	minScore := a.minScore
	if intent.SemanticBroadened {
		topK *= 2
		if topK > maxTopK {
			topK = maxTopK
		}
		minScore -= 0.1
		if minScore < 0 {
			minScore = 0
		}
	}

	filters := types.SemanticFilters{TimeRange: intent.TimeRange}
	switch {
	case intent.Region != "":
		filters.Region = intent.Region
	case intent.Bounds != nil && a.regionFor != nil:
		if name := a.regionFor(*intent.Bounds); name != "" && name != "Other" {
			filters.Region = name
		}
	}

	hits, err := a.store.Query(ctx, vector, topK, filters, minScore)
	if err != nil {
		return ErrorResult(types.AgentSemantic, err, time.Since(start))
	}

	payload := map[string]any{}
	summary := "No semantic matches found"
	if len(hits) > 0 {
		hitMaps := make([]map[string]any, 0, len(hits))
		for _, hit := range hits {
			hitMaps = append(hitMaps, structToMap(hit))
		}
		payload["hits"] = hitMaps

		n := len(hits)
		if n > topMatchCount {
			n = topMatchCount
		}
		matches := make([]map[string]any, 0, n)
		for _, hit := range hits[:n] {
			matches = append(matches, map[string]any{
				"platform_number": hit.PlatformNumber,
				"score":           hit.Score,
				"time":            hit.Time.UTC().Format(time.RFC3339),
			})
		}
		payload["top_matches"] = matches
		summary = fmt.Sprintf("Found %d semantically similar measurements", len(hits))
	}

	return Result{
		Agent:    types.AgentSemantic,
		Payload:  payload,
		Summary:  summary,
		RowCount: len(hits),
		Duration: time.Since(start),
	}
}
