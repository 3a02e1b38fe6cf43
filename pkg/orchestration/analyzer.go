// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"fmt"

	"github.com/teradata-labs/argonaut/pkg/agents"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// Suggestion names one refinement action the next cycle can apply.
type Suggestion string

const (
	SuggestExpandSpatial   Suggestion = "expand_spatial"
	SuggestExpandTemporal  Suggestion = "expand_temporal"
	SuggestBroadenSemantic Suggestion = "broaden_semantic"
	SuggestEnhanceMetadata Suggestion = "enhance_metadata"
)

// Analysis scores one cycle's result bundle. It is a pure function of the
// bundle; analyzing the same results twice gives identical analyses.
type Analysis struct {
	MeasurementQuality float64      `json:"measurement_quality"`
	MetadataQuality    float64      `json:"metadata_quality"`
	SemanticQuality    float64      `json:"semantic_quality"`
	Completeness       float64      `json:"completeness"`
	Overall            float64      `json:"overall"`
	Suggestions        []Suggestion `json:"suggestions,omitempty"`
	NeedsRefinement    bool         `json:"needs_refinement"`
	Summary            string       `json:"summary"`
}

// Analyzer grades agent results against the quality gate. It never calls
// an LLM.
type Analyzer struct {
	threshold float64
}

// NewAnalyzer builds the analyzer. threshold <= 0 selects
// DefaultQualityThreshold.
func NewAnalyzer(threshold float64) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultQualityThreshold
	}
	return &Analyzer{threshold: threshold}
}

// Analyze scores the cycle. Overall is the mean over the sub-scores of
// agents present in the bundle plus completeness, so a single-agent query
// can still clear the gate.
func (a *Analyzer) Analyze(intent types.Intent, results map[types.AgentKind]agents.Result) Analysis {
	var an Analysis

	present := 0
	sum := 0.0
	if res, ok := results[types.AgentMeasurement]; ok {
		an.MeasurementQuality = measurementQuality(res)
		sum += an.MeasurementQuality
		present++
	}
	if res, ok := results[types.AgentMetadata]; ok {
		an.MetadataQuality = metadataQuality(res)
		sum += an.MetadataQuality
		present++
	}
	if res, ok := results[types.AgentSemantic]; ok {
		an.SemanticQuality = semanticQuality(res)
		sum += an.SemanticQuality
		present++
	}

	an.Completeness = completeness(intent, results)
	an.Overall = (sum + an.Completeness) / float64(present+1)

	an.Suggestions = suggest(intent, results)
	an.NeedsRefinement = an.Overall < a.threshold || len(an.Suggestions) > 0
	an.Summary = summaryLine(an)
	return an
}

// measurementQuality rewards rows, statistics, and coverage payloads.
func measurementQuality(res agents.Result) float64 {
	if res.Errored() {
		return 0
	}
	q := 0.0
	if res.RowCount > 0 {
		q += 0.4
	}
	if _, ok := res.Payload["statistics"]; ok {
		q += 0.3
	}
	if _, ok := res.Payload["time_range"]; ok {
		q += 0.2
	}
	if _, ok := res.Payload["spatial_coverage"]; ok {
		q += 0.1
	}
	return q
}

func metadataQuality(res agents.Result) float64 {
	if res.Errored() {
		return 0
	}
	q := 0.0
	if len(res.Payload) > 0 {
		q += 0.5
	}
	if res.Summary != "" {
		q += 0.3
	}
	if _, ok := res.Payload["count"]; ok {
		q += 0.2
	}
	return q
}

func semanticQuality(res agents.Result) float64 {
	if res.Errored() {
		return 0
	}
	q := 0.0
	if res.RowCount > 0 {
		q += 0.6
	}
	if _, ok := res.Payload["top_matches"]; ok {
		q += 0.4
	}
	return q
}

// completeness is the fraction of demanded agents that returned without
// error. A query demanding nothing is complete by definition.
func completeness(intent types.Intent, results map[types.AgentKind]agents.Result) float64 {
	demanded := intent.Agents.Kinds()
	if len(demanded) == 0 {
		return 1.0
	}
	ok := 0
	for _, kind := range demanded {
		if res, found := results[kind]; found && !res.Errored() {
			ok++
		}
	}
	return float64(ok) / float64(len(demanded))
}

// suggest names the refinements that could improve the next cycle.
func suggest(intent types.Intent, results map[types.AgentKind]agents.Result) []Suggestion {
	var out []Suggestion
	if res, ok := results[types.AgentMeasurement]; ok && !res.Errored() && res.RowCount == 0 {
		if intent.Bounds != nil {
			out = append(out, SuggestExpandSpatial)
		}
		if intent.TimeRange != nil {
			out = append(out, SuggestExpandTemporal)
		}
	}
	if res, ok := results[types.AgentSemantic]; ok && !res.Errored() && res.RowCount == 0 {
		out = append(out, SuggestBroadenSemantic)
	}
	if res, ok := results[types.AgentMetadata]; ok && (res.Errored() || len(res.Payload) == 0) {
		out = append(out, SuggestEnhanceMetadata)
	}
	return out
}

func summaryLine(an Analysis) string {
	grade := "poor"
	switch {
	case an.Overall > 0.8:
		grade = "excellent"
	case an.Overall > 0.6:
		grade = "good"
	case an.Overall > 0.4:
		grade = "fair"
	}
	return fmt.Sprintf("Analysis quality: %s (score: %.2f). Measurement: %.2f, Metadata: %.2f, Semantic: %.2f, Completeness: %.2f",
		grade, an.Overall, an.MeasurementQuality, an.MetadataQuality, an.SemanticQuality, an.Completeness)
}
