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
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/types"
	"github.com/teradata-labs/argonaut/pkg/visualization"
)

const (
	// sampleThreshold is the row count above which the coordinator skips
	// LLM synthesis and returns a sampled table.
	sampleThreshold = 100

	// sampleRows is the size of a sampled table.
	sampleRows = 10

	// fullRowCap bounds a full-data table.
	fullRowCap = 1000

	// payloadCharCap bounds the per-agent JSON handed to the LLM.
	payloadCharCap = 4000
)

// fullDataFamily is the closed set of phrases that opt out of sampling.
var fullDataFamily = []string{
	"all data",
	"whole data",
	"complete data",
	"full data",
	"all measurements",
}

// preferredColumns orders measurement table columns; unknown columns
// follow alphabetically.
var preferredColumns = []string{
	"platform_number", "juld", "latitude", "longitude",
	"pres_adjusted", "temp_adjusted", "psal_adjusted",
}

const synthesisSystemPrompt = `You are an expert oceanographer analyzing Argo float data. Write clear, scientifically accurate summaries for researchers.`

// Coordinator turns a cycle's agent results into the user-facing answer.
type Coordinator struct {
	llm    types.LLMProvider
	logger *zap.Logger
}

// NewCoordinator builds the coordinator.
func NewCoordinator(llm types.LLMProvider, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{llm: llm, logger: logger}
}

// Synthesize produces the answer body for the final cycle. Large result
// sets are sampled instead of synthesized unless the query asks for the
// complete data. LLM failures degrade to a deterministic rendering, never
// to an error.
func (c *Coordinator) Synthesize(ctx context.Context, query string, results map[types.AgentKind]Result) string {
	rows := measurementRows(results)
	wantsFull := wantsFullData(query)

	if len(rows) > sampleThreshold && !wantsFull {
		return withChart(sampledTable(rows), rows)
	}

	body, err := c.synthesizeLLM(ctx, query, results)
	if err != nil {
		c.logger.Warn("llm synthesis failed, using deterministic rendering", zap.Error(err))
		body = c.fallback(results, rows, wantsFull)
	}
	return withChart(body, rows)
}

func (c *Coordinator) synthesizeLLM(ctx context.Context, query string, results map[types.AgentKind]Result) (string, error) {
	if c.llm == nil {
		return "", types.NewError(types.KindLLMUnavailable, "no LLM provider configured for synthesis")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User question: %s\n\nAgent findings:\n", query)
	for _, kind := range []types.AgentKind{types.AgentMeasurement, types.AgentMetadata, types.AgentSemantic} {
		res, ok := results[kind]
		if !ok {
			continue
		}
		if res.Errored() {
			fmt.Fprintf(&sb, "\n[%s] failed: %s\n", kind, res.Err.Message)
			continue
		}
		fmt.Fprintf(&sb, "\n[%s] %s\n%s\n", kind, res.Summary, truncateJSON(res.Payload, payloadCharCap))
	}
	sb.WriteString(`
Write the answer following these requirements:
1. Answer the question directly in the first sentence.
2. Report concrete numbers: counts, ranges, and means where available.
3. Note data quality issues or coverage gaps.
4. State the region and time window the data covers.
5. Keep the answer under 300 words.
6. Use markdown formatting.`)

	reply, err := c.llm.Complete(ctx, types.CompletionRequest{
		System:      synthesisSystemPrompt,
		Messages:    []types.Message{{Role: types.RoleUser, Content: sb.String()}},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", types.NewError(types.KindLLMUnavailable, "empty synthesis reply")
	}
	return reply, nil
}

// fallback renders results without an LLM.
func (c *Coordinator) fallback(results map[types.AgentKind]Result, rows []map[string]any, wantsFull bool) string {
	if len(rows) == 0 {
		var parts []string
		for _, kind := range []types.AgentKind{types.AgentMeasurement, types.AgentMetadata, types.AgentSemantic} {
			if res, ok := results[kind]; ok && !res.Errored() && res.Summary != "" {
				parts = append(parts, res.Summary)
			}
		}
		if len(parts) == 0 {
			return "No results were produced for this query."
		}
		return strings.Join(parts, "\n\n")
	}

	if wantsFull {
		limit := len(rows)
		if limit > fullRowCap {
			limit = fullRowCap
		}
		out := markdownTable(rows, limit)
		if len(rows) > fullRowCap {
			out += fmt.Sprintf("\n\nNote: Only the first %d rows are shown. Total rows: %d.", fullRowCap, len(rows))
		}
		return out
	}
	if len(rows) > sampleRows {
		return sampledTable(rows)
	}
	return markdownTable(rows, len(rows))
}

// sampledTable renders the first rows with a pointer to the full-data
// phrases.
func sampledTable(rows []map[string]any) string {
	return fmt.Sprintf("The query returned %d rows. Here's a sample of the first %d rows:\n\n%s\n\n"+
		"Note: Only a sample is shown. Total rows: %d. If you need the complete data, "+
		"please ask for 'all data' or 'complete data'.",
		len(rows), sampleRows, markdownTable(rows, sampleRows), len(rows))
}

// withChart appends the fenced visualization block when the rows support
// one.
func withChart(body string, rows []map[string]any) string {
	if viz := visualization.Render(rows); viz != "" {
		return body + "\n\n" + viz
	}
	return body
}

// measurementRows extracts the measurement rows from the result bundle.
func measurementRows(results map[types.AgentKind]Result) []map[string]any {
	res, ok := results[types.AgentMeasurement]
	if !ok || res.Errored() {
		return nil
	}
	rows, _ := res.Payload["measurements"].([]map[string]any)
	return rows
}

// wantsFullData reports whether the query contains one of the full-data
// phrases.
func wantsFullData(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range fullDataFamily {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// markdownTable renders up to limit rows as a GitHub-flavored table.
func markdownTable(rows []map[string]any, limit int) string {
	if len(rows) == 0 {
		return ""
	}
	if limit > len(rows) {
		limit = len(rows)
	}
	cols := tableColumns(rows[0])

	var sb strings.Builder
	sb.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, row := range rows[:limit] {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = formatCell(row[col])
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// tableColumns orders the columns of a row, preferred names first.
func tableColumns(row map[string]any) []string {
	seen := map[string]bool{}
	var cols []string
	for _, col := range preferredColumns {
		if _, ok := row[col]; ok {
			cols = append(cols, col)
			seen[col] = true
		}
	}
	var rest []string
	for col := range row {
		if !seen[col] {
			rest = append(rest, col)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// formatCell renders one table cell. Missing values render empty.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if math.IsNaN(val) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truncateJSON marshals v and bounds the output length.
func truncateJSON(v any, limit int) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	s := string(data)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "... (truncated)"
}
