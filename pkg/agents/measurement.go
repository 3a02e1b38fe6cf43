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

// DefaultRowLimit bounds typed measurement queries.
const DefaultRowLimit = 1000

// sqlSystemPrompt documents the measurement schema for LLM-generated SQL.
const sqlSystemPrompt = `You are a SQL generator for an Argo float measurement database.

Table argo_measurements:
  platform_number STRING   -- 7-digit float identifier
  time            TIMESTAMPTZ
  latitude        FLOAT8
  longitude       FLOAT8
  pres_adjusted   FLOAT8   -- pressure in dbar, 1 dbar is approximately 1 m of depth
  temp_adjusted   FLOAT8   -- temperature in degrees Celsius
  psal_adjusted   FLOAT8   -- practical salinity
  rowid           INT8 PRIMARY KEY

Indexes: idx_platform_number (platform_number), idx_platform_time (platform_number, time).

Reply with exactly one SELECT statement and nothing else. Never modify data.
Always include a LIMIT of at most 1000.`

// listFamily marks queries that ask for platform listings rather than
// measurements.
var listFamily = []string{"all float", "float id", "platform number"}

// TimeseriesStore is the slice of the SQL adapter the measurement agent
// uses.
type TimeseriesStore interface {
	ByFloat(ctx context.Context, floatID string, tr *types.TimeRange, limit int) ([]types.Measurement, error)
	ByRegion(ctx context.Context, b types.BoundingBox, tr *types.TimeRange, limit int) ([]types.Measurement, error)
	Execute(ctx context.Context, query string) ([]map[string]any, error)
}

// MeasurementAgent retrieves rows from the timeseries store.
type MeasurementAgent struct {
	store  TimeseriesStore
	llm    types.LLMProvider
	limit  int
	logger *zap.Logger
}

// NewMeasurementAgent builds the agent. limit <= 0 selects DefaultRowLimit.
func NewMeasurementAgent(store TimeseriesStore, llm types.LLMProvider, limit int, logger *zap.Logger) *MeasurementAgent {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeasurementAgent{store: store, llm: llm, limit: limit, logger: logger}
}

// Kind identifies the agent.
func (a *MeasurementAgent) Kind() types.AgentKind {
	return types.AgentMeasurement
}

// Run executes one measurement retrieval for the given intent.
func (a *MeasurementAgent) Run(ctx context.Context, query string, intent types.Intent) Result {
	start := time.Now()

	if wantsPlatformList(query) {
		return a.runGenerated(ctx, query, start)
	}

	limit := a.limit
	if intent.Limit > 0 && intent.Limit < limit {
		limit = intent.Limit
	}

	var rows []types.Measurement
	var err error
	switch {
	case intent.FloatID != "":
		rows, err = a.store.ByFloat(ctx, intent.FloatID, intent.TimeRange, limit)
	case intent.Bounds != nil:
		rows, err = a.store.ByRegion(ctx, *intent.Bounds, intent.TimeRange, limit)
	default:
		return ErrorResult(types.AgentMeasurement,
			types.Errorf(types.KindInvalidInput, "No valid parameters for measurement query"), time.Since(start))
	}
	if err != nil {
		return ErrorResult(types.AgentMeasurement, err, time.Since(start))
	}

	payload := map[string]any{}
	summary := "No measurements found for the specified criteria"
	if len(rows) > 0 {
		payload["measurements"] = rowsToMaps(rows)
		if stats := computeStats(rows); len(stats) > 0 {
			payload["statistics"] = stats
		}
		if tr, ok := timeSpanOf(rows); ok {
			payload["time_range"] = map[string]any{
				"start": tr.Start.UTC().Format(time.RFC3339),
				"end":   tr.End.UTC().Format(time.RFC3339),
			}
		}
		if cov, ok := spatialCoverageOf(rows); ok {
			payload["spatial_coverage"] = structToMap(cov)
		}
		summary = fmt.Sprintf("Found %d measurements with comprehensive statistics", len(rows))
	}

	return Result{
		Agent:    types.AgentMeasurement,
		Payload:  payload,
		Summary:  summary,
		RowCount: len(rows),
		Duration: time.Since(start),
	}
}

// runGenerated asks the LLM for SQL and executes it verbatim.
func (a *MeasurementAgent) runGenerated(ctx context.Context, query string, start time.Time) Result {
	if a.llm == nil {
		return ErrorResult(types.AgentMeasurement,
			types.NewError(types.KindLLMUnavailable, "no LLM provider configured for SQL generation"), time.Since(start))
	}

	reply, err := a.llm.Complete(ctx, types.CompletionRequest{
		System:      sqlSystemPrompt,
		Messages:    []types.Message{{Role: types.RoleUser, Content: query}},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return ErrorResult(types.AgentMeasurement, err, time.Since(start))
	}

	stmt := stripFences(reply)
	if !strings.HasPrefix(strings.ToUpper(stmt), "SELECT") {
		return ErrorResult(types.AgentMeasurement,
			types.Errorf(types.KindInvalidInput, "generated statement must be a SELECT"), time.Since(start))
	}
	a.logger.Debug("executing generated sql", zap.String("statement", stmt))

	rows, err := a.store.Execute(ctx, stmt)
	if err != nil {
		return ErrorResult(types.AgentMeasurement, err, time.Since(start))
	}

	payload := map[string]any{}
	summary := "No measurements found for the specified criteria"
	if len(rows) > 0 {
		payload["measurements"] = rows
		summary = fmt.Sprintf("Found %d matching records", len(rows))
	}
	return Result{
		Agent:    types.AgentMeasurement,
		Payload:  payload,
		Summary:  summary,
		RowCount: len(rows),
		Duration: time.Since(start),
	}
}

// wantsPlatformList reports whether the query asks for platform listings.
func wantsPlatformList(query string) bool {
	lower := strings.ToLower(query)
	for _, marker := range listFamily {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// stripFences removes a surrounding markdown code fence, including an
// optional language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	body := parts[1]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		tag := strings.ToLower(strings.TrimSpace(body[:nl]))
		if tag == "" || tag == "sql" || tag == "cypher" {
			body = body[nl+1:]
		}
	}
	return strings.TrimSpace(body)
}

// timeSpanOf returns the min/max time over the rows.
func timeSpanOf(rows []types.Measurement) (types.TimeRange, bool) {
	if len(rows) == 0 {
		return types.TimeRange{}, false
	}
	span := types.TimeRange{Start: rows[0].Time, End: rows[0].Time}
	for _, row := range rows[1:] {
		if row.Time.Before(span.Start) {
			span.Start = row.Time
		}
		if row.Time.After(span.End) {
			span.End = row.Time
		}
	}
	return span, true
}

// spatialCoverageOf returns the bounding extent and center of the rows.
func spatialCoverageOf(rows []types.Measurement) (types.SpatialCoverage, bool) {
	if len(rows) == 0 {
		return types.SpatialCoverage{}, false
	}
	minLat, maxLat := rows[0].Latitude, rows[0].Latitude
	minLon, maxLon := rows[0].Longitude, rows[0].Longitude
	for _, row := range rows[1:] {
		if row.Latitude < minLat {
			minLat = row.Latitude
		}
		if row.Latitude > maxLat {
			maxLat = row.Latitude
		}
		if row.Longitude < minLon {
			minLon = row.Longitude
		}
		if row.Longitude > maxLon {
			maxLon = row.Longitude
		}
	}
	return types.SpatialCoverage{
		LatRange: [2]float64{minLat, maxLat},
		LonRange: [2]float64{minLon, maxLon},
		Center:   [2]float64{(minLat + maxLat) / 2, (minLon + maxLon) / 2},
	}, true
}
