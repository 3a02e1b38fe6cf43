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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/types"
)

// cypherSystemPrompt documents the metadata graph for LLM-generated Cypher.
const cypherSystemPrompt = `You are a Cypher generator for an Argo float metadata graph.

Node labels:
  Float     {platform_number: string, deployment_date: date}
  Region    {name: string}
  Parameter {name: string}

Relationships:
  (Float)-[:LOCATED_IN]->(Region)
  (Float)-[:MEASURES]->(Parameter)
  (Region)-[:PART_OF]->(Region)

Reply with exactly one read-only Cypher query and nothing else.
Never use CREATE, MERGE, DELETE, SET, or REMOVE.
Queries that return lists must include LIMIT 50.`

// graphFamily marks queries answered by generated Cypher rather than the
// typed lookups.
var graphFamily = []string{
	"all regions",
	"region list",
	"float count",
	"region hierarchy",
	"parameters measured",
	"deployment info",
	"region statistics",
}

// maxRegionFloats caps the platform list attached to a region result;
// basin-scale regions hold thousands of floats.
const maxRegionFloats = 20

// GraphStore is the slice of the graph adapter the metadata agent uses.
type GraphStore interface {
	FloatMetadata(ctx context.Context, platformNumber string) (*types.FloatMetadata, error)
	RegionMetadata(ctx context.Context, name string) (*types.RegionMetadata, error)
	FloatsInRegion(ctx context.Context, name string, includeSubregions bool) ([]string, error)
	RegionHierarchy(ctx context.Context) (map[string]*types.RegionNode, error)
	ParameterCoverage(ctx context.Context, regionName string) (map[string]int, error)
	Execute(ctx context.Context, cypher string) ([]map[string]any, error)
}

// MetadataAgent answers deployment and coverage questions from the graph.
type MetadataAgent struct {
	store  GraphStore
	llm    types.LLMProvider
	logger *zap.Logger
}

// NewMetadataAgent builds the agent.
func NewMetadataAgent(store GraphStore, llm types.LLMProvider, logger *zap.Logger) *MetadataAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetadataAgent{store: store, llm: llm, logger: logger}
}

// Kind identifies the agent.
func (a *MetadataAgent) Kind() types.AgentKind {
	return types.AgentMetadata
}

// Run executes one metadata retrieval for the given intent.
func (a *MetadataAgent) Run(ctx context.Context, query string, intent types.Intent) Result {
	start := time.Now()

	var res Result
	switch {
	case wantsGraphQuery(query):
		res = a.runGenerated(ctx, query, start)
	case intent.FloatID != "":
		res = a.runFloat(ctx, intent.FloatID, start)
	case intent.Region != "":
		res = a.runRegion(ctx, intent.Region, start)
	default:
		res = a.runCoverage(ctx, start)
	}
	if res.Errored() {
		return res
	}

	if intent.MetadataEnhanced {
		hierarchy, err := a.store.RegionHierarchy(ctx)
		if err != nil {
			a.logger.Warn("region hierarchy unavailable", zap.Error(err))
		} else if len(hierarchy) > 0 {
			if res.Payload == nil {
				res.Payload = map[string]any{}
			}
			res.Payload["region_hierarchy"] = hierarchy
		}
		res.Duration = time.Since(start)
	}
	return res
}

func (a *MetadataAgent) runFloat(ctx context.Context, platformNumber string, start time.Time) Result {
	fm, err := a.store.FloatMetadata(ctx, platformNumber)
	if err != nil {
		return ErrorResult(types.AgentMetadata, err, time.Since(start))
	}
	if fm == nil {
		return Result{
			Agent:    types.AgentMetadata,
			Payload:  map[string]any{},
			Summary:  "No metadata found for the specified criteria",
			Duration: time.Since(start),
		}
	}
	return Result{
		Agent: types.AgentMetadata,
		Payload: map[string]any{
			"float": structToMap(fm),
			"count": len(fm.Parameters),
		},
		Summary: fmt.Sprintf("Float %s measures %s in %s",
			fm.PlatformNumber, strings.Join(fm.Parameters, ", "), fm.Region),
		RowCount: 1,
		Duration: time.Since(start),
	}
}

func (a *MetadataAgent) runRegion(ctx context.Context, name string, start time.Time) Result {
	rm, err := a.store.RegionMetadata(ctx, name)
	if err != nil {
		return ErrorResult(types.AgentMetadata, err, time.Since(start))
	}
	if rm == nil {
		return Result{
			Agent:    types.AgentMetadata,
			Payload:  map[string]any{},
			Summary:  "No metadata found for the specified criteria",
			Duration: time.Since(start),
		}
	}

	payload := map[string]any{
		"region": structToMap(rm),
		"count":  rm.FloatCount,
	}
	// Regions with subregions use the transitive lookup so nested floats
	// are listed too.
	floats, err := a.store.FloatsInRegion(ctx, name, len(rm.Subregions) > 0)
	if err != nil {
		a.logger.Warn("region float list unavailable", zap.String("region", name), zap.Error(err))
	} else if len(floats) > 0 {
		if len(floats) > maxRegionFloats {
			floats = floats[:maxRegionFloats]
		}
		payload["floats"] = floats
	}

	return Result{
		Agent:    types.AgentMetadata,
		Payload:  payload,
		Summary:  fmt.Sprintf("%s has %d active floats", rm.Name, rm.FloatCount),
		RowCount: 1,
		Duration: time.Since(start),
	}
}

func (a *MetadataAgent) runCoverage(ctx context.Context, start time.Time) Result {
	coverage, err := a.store.ParameterCoverage(ctx, "")
	if err != nil {
		return ErrorResult(types.AgentMetadata, err, time.Since(start))
	}
	if len(coverage) == 0 {
		return Result{
			Agent:    types.AgentMetadata,
			Payload:  map[string]any{},
			Summary:  "No metadata found for the specified criteria",
			Duration: time.Since(start),
		}
	}
	return Result{
		Agent: types.AgentMetadata,
		Payload: map[string]any{
			"parameter_coverage": coverage,
			"count":              len(coverage),
		},
		Summary:  fmt.Sprintf("Found measurement coverage for %d parameters", len(coverage)),
		RowCount: len(coverage),
		Duration: time.Since(start),
	}
}

// runGenerated asks the LLM for Cypher and executes it through the
// read-only gate.
func (a *MetadataAgent) runGenerated(ctx context.Context, query string, start time.Time) Result {
	if a.llm == nil {
		return ErrorResult(types.AgentMetadata,
			types.NewError(types.KindLLMUnavailable, "no LLM provider configured for Cypher generation"), time.Since(start))
	}

	reply, err := a.llm.Complete(ctx, types.CompletionRequest{
		System:      cypherSystemPrompt,
		Messages:    []types.Message{{Role: types.RoleUser, Content: query}},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return ErrorResult(types.AgentMetadata, err, time.Since(start))
	}

	stmt := stripFences(reply)
	a.logger.Debug("executing generated cypher", zap.String("statement", stmt))

	rows, err := a.store.Execute(ctx, stmt)
	if err != nil {
		return ErrorResult(types.AgentMetadata, err, time.Since(start))
	}

	payload := map[string]any{}
	summary := "No metadata found for the specified criteria"
	if len(rows) > 0 {
		payload["rows"] = rows
		payload["count"] = len(rows)
		summary = fmt.Sprintf("Found %d metadata records", len(rows))
	}
	return Result{
		Agent:    types.AgentMetadata,
		Payload:  payload,
		Summary:  summary,
		RowCount: len(rows),
		Duration: time.Since(start),
	}
}

// wantsGraphQuery reports whether the query asks an open-ended graph
// question.
func wantsGraphQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, marker := range graphFamily {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
