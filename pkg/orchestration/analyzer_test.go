// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package orchestration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teradata-labs/argonaut/pkg/agents"
	"github.com/teradata-labs/argonaut/pkg/types"
)

func fullMeasurementResult() agents.Result {
	return agents.Result{
		Agent: types.AgentMeasurement,
		Payload: map[string]any{
			"measurements":     []map[string]any{{"platform_number": "2901234"}},
			"statistics":       map[string]any{"temp_adjusted": map[string]any{"mean": 28.0}},
			"time_range":       map[string]string{"start": "2023-03-01T00:00:00Z", "end": "2023-03-02T00:00:00Z"},
			"spatial_coverage": map[string]any{"center": []float64{15, 60}},
		},
		Summary:  "Found 1 measurements with comprehensive statistics",
		RowCount: 1,
	}
}

func fullMetadataResult() agents.Result {
	return agents.Result{
		Agent:    types.AgentMetadata,
		Payload:  map[string]any{"region": map[string]any{"name": "Arabian Sea"}, "count": 42},
		Summary:  "Arabian Sea has 42 active floats",
		RowCount: 1,
	}
}

func fullSemanticResult() agents.Result {
	return agents.Result{
		Agent:    types.AgentSemantic,
		Payload:  map[string]any{"hits": []map[string]any{{"score": 0.9}}, "top_matches": []map[string]any{{"score": 0.9}}},
		Summary:  "Found 1 semantically similar measurements",
		RowCount: 1,
	}
}

func TestAnalyzer_FullQualitySingleAgent(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: fullMeasurementResult(),
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, 1.0, an.MeasurementQuality)
	assert.Equal(t, 1.0, an.Completeness)
	assert.Equal(t, 1.0, an.Overall)
	assert.Empty(t, an.Suggestions)
	assert.False(t, an.NeedsRefinement)
	assert.Contains(t, an.Summary, "excellent")
}

func TestAnalyzer_AllAgentsPerfect(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement, types.AgentMetadata, types.AgentSemantic)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: fullMeasurementResult(),
		types.AgentMetadata:    fullMetadataResult(),
		types.AgentSemantic:    fullSemanticResult(),
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, 1.0, an.MeasurementQuality)
	assert.Equal(t, 1.0, an.MetadataQuality)
	assert.Equal(t, 1.0, an.SemanticQuality)
	assert.Equal(t, 1.0, an.Overall)
	assert.False(t, an.NeedsRefinement)
}

func TestAnalyzer_MeasurementSubScores(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement)}

	res := agents.Result{
		Agent:    types.AgentMeasurement,
		Payload:  map[string]any{"measurements": []map[string]any{{}}},
		RowCount: 3,
	}
	an := NewAnalyzer(0.7).Analyze(intent, map[types.AgentKind]agents.Result{types.AgentMeasurement: res})
	assert.InDelta(t, 0.4, an.MeasurementQuality, 1e-9, "rows alone are worth 0.4")

	res.Payload["statistics"] = map[string]any{}
	an = NewAnalyzer(0.7).Analyze(intent, map[types.AgentKind]agents.Result{types.AgentMeasurement: res})
	assert.InDelta(t, 0.7, an.MeasurementQuality, 1e-9)

	res.Payload["time_range"] = map[string]string{}
	res.Payload["spatial_coverage"] = map[string]any{}
	an = NewAnalyzer(0.7).Analyze(intent, map[types.AgentKind]agents.Result{types.AgentMeasurement: res})
	assert.InDelta(t, 1.0, an.MeasurementQuality, 1e-9)
}

func TestAnalyzer_EmptyMeasurementSuggestsExpansion(t *testing.T) {
	bounds := types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}
	tr := types.TimeRange{}
	intent := types.Intent{
		Agents:    types.MaskOf(types.AgentMeasurement),
		Bounds:    &bounds,
		TimeRange: &tr,
	}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: {
			Agent:   types.AgentMeasurement,
			Payload: map[string]any{"measurements": []map[string]any{}},
			Summary: "No measurements found for the specified criteria",
		},
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, []Suggestion{SuggestExpandSpatial, SuggestExpandTemporal}, an.Suggestions)
	assert.True(t, an.NeedsRefinement)
}

func TestAnalyzer_NoConstraintsNoExpansion(t *testing.T) {
	// Nothing to widen when the intent never carried a box or a window.
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: {Agent: types.AgentMeasurement, Payload: map[string]any{"measurements": []map[string]any{}}},
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Empty(t, an.Suggestions)
	assert.True(t, an.NeedsRefinement, "low score alone still triggers refinement")
}

func TestAnalyzer_SemanticNoHitsSuggestsBroadening(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentSemantic)}
	results := map[types.AgentKind]agents.Result{
		types.AgentSemantic: {Agent: types.AgentSemantic, Payload: map[string]any{"hits": []map[string]any{}}},
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, []Suggestion{SuggestBroadenSemantic}, an.Suggestions)
	assert.Equal(t, 0.0, an.SemanticQuality)
}

func TestAnalyzer_MetadataEmptySuggestsEnhance(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMetadata)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMetadata: {Agent: types.AgentMetadata, Summary: "No metadata found for the specified criteria"},
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, []Suggestion{SuggestEnhanceMetadata}, an.Suggestions)
	assert.InDelta(t, 0.3, an.MetadataQuality, 1e-9, "summary without payload")
}

func TestAnalyzer_MetadataErroredSuggestsEnhance(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMetadata)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMetadata: agents.ErrorResult(types.AgentMetadata,
			types.NewError(types.KindBackendUnavailable, "neo4j down"), 0),
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Equal(t, []Suggestion{SuggestEnhanceMetadata}, an.Suggestions)
	assert.Equal(t, 0.0, an.MetadataQuality)
	assert.Equal(t, 0.0, an.Completeness)
}

func TestAnalyzer_ErroredAgentsDoNotSuggestExpansion(t *testing.T) {
	bounds := types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement, types.AgentSemantic), Bounds: &bounds}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: agents.ErrorResult(types.AgentMeasurement,
			types.NewError(types.KindBackendQuery, "bad sql"), 0),
		types.AgentSemantic: fullSemanticResult(),
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.Empty(t, an.Suggestions, "errored measurement must not trigger spatial expansion")
	assert.Equal(t, 0.5, an.Completeness)
	assert.InDelta(t, 0.5, an.Overall, 1e-9, "(0 + 1.0 + 0.5) / 3")
	assert.True(t, an.NeedsRefinement)
}

func TestAnalyzer_OverallAveragesPresentAgentsOnly(t *testing.T) {
	// A demanded agent that produced no result drags completeness, not the
	// per-agent mean.
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement, types.AgentMetadata, types.AgentSemantic)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: fullMeasurementResult(),
	}

	an := NewAnalyzer(0.7).Analyze(intent, results)

	assert.InDelta(t, 1.0/3.0, an.Completeness, 1e-9)
	assert.InDelta(t, (1.0+1.0/3.0)/2.0, an.Overall, 1e-9)
}

func TestAnalyzer_SummaryBands(t *testing.T) {
	cases := []struct {
		overall float64
		grade   string
	}{
		{0.85, "excellent"},
		{0.7, "good"},
		{0.5, "fair"},
		{0.3, "poor"},
	}
	for _, tc := range cases {
		line := summaryLine(Analysis{Overall: tc.overall})
		assert.Contains(t, line, "Analysis quality: "+tc.grade, "overall %.2f", tc.overall)
	}
}

func TestAnalyzer_SummaryFormat(t *testing.T) {
	an := Analysis{
		MeasurementQuality: 1,
		MetadataQuality:    0.5,
		SemanticQuality:    0,
		Completeness:       0.75,
		Overall:            0.56,
	}
	assert.Equal(t,
		"Analysis quality: fair (score: 0.56). Measurement: 1.00, Metadata: 0.50, Semantic: 0.00, Completeness: 0.75",
		summaryLine(an))
}

func TestNewAnalyzer_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultQualityThreshold, NewAnalyzer(0).threshold)
	assert.Equal(t, 0.5, NewAnalyzer(0.5).threshold)
}

func TestAnalyzer_Deterministic(t *testing.T) {
	intent := types.Intent{Agents: types.MaskOf(types.AgentMeasurement, types.AgentSemantic)}
	results := map[types.AgentKind]agents.Result{
		types.AgentMeasurement: fullMeasurementResult(),
		types.AgentSemantic:    {Agent: types.AgentSemantic},
	}

	a := NewAnalyzer(0.7)
	assert.Equal(t, a.Analyze(intent, results), a.Analyze(intent, results))
}
