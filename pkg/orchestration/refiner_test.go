// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package orchestration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/argonaut/pkg/types"
)

func TestRefiner_ExpandSpatial(t *testing.T) {
	bounds := types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}
	intent := types.Intent{Bounds: &bounds}

	next := NewRefiner(zaptest.NewLogger(t)).Refine(intent, []Suggestion{SuggestExpandSpatial})

	require.NotNil(t, next.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: 8, MaxLat: 27, MinLon: 53, MaxLon: 77}, *next.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}, bounds,
		"input intent must not be mutated")
}

func TestRefiner_ExpandSpatialClampsAtPoles(t *testing.T) {
	bounds := types.BoundingBox{MinLat: 85, MaxLat: 89, MinLon: 177, MaxLon: 179}
	intent := types.Intent{Bounds: &bounds}

	next := NewRefiner(nil).Refine(intent, []Suggestion{SuggestExpandSpatial})

	require.NotNil(t, next.Bounds)
	assert.Equal(t, 90.0, next.Bounds.MaxLat)
	assert.Equal(t, 180.0, next.Bounds.MaxLon)
	assert.Equal(t, 83.0, next.Bounds.MinLat)
}

func TestRefiner_ExpandTemporal(t *testing.T) {
	start := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * 24 * time.Hour)
	tr := types.TimeRange{Start: start, End: end}
	intent := types.Intent{TimeRange: &tr}

	next := NewRefiner(nil).Refine(intent, []Suggestion{SuggestExpandTemporal})

	require.NotNil(t, next.TimeRange)
	assert.Equal(t, start.Add(-5*24*time.Hour), next.TimeRange.Start)
	assert.Equal(t, end.Add(5*24*time.Hour), next.TimeRange.End)
	assert.Equal(t, start, tr.Start, "input intent must not be mutated")
}

func TestRefiner_BroadenSemanticAndEnhanceMetadata(t *testing.T) {
	intent := types.Intent{}

	next := NewRefiner(nil).Refine(intent, []Suggestion{SuggestBroadenSemantic, SuggestEnhanceMetadata})

	assert.True(t, next.SemanticBroadened)
	assert.True(t, next.MetadataEnhanced)
	assert.False(t, intent.SemanticBroadened)
	assert.False(t, intent.MetadataEnhanced)
}

func TestRefiner_NilFieldsAreSkipped(t *testing.T) {
	next := NewRefiner(nil).Refine(types.Intent{}, []Suggestion{SuggestExpandSpatial, SuggestExpandTemporal})

	assert.Nil(t, next.Bounds)
	assert.Nil(t, next.TimeRange)
}

func TestRefiner_UnknownSuggestionIgnored(t *testing.T) {
	intent := types.Intent{FloatID: "2901234"}

	next := NewRefiner(nil).Refine(intent, []Suggestion{Suggestion("defragment")})

	assert.Equal(t, intent.FloatID, next.FloatID)
	assert.False(t, next.SemanticBroadened)
}

func TestRefiner_CloneIsIndependent(t *testing.T) {
	bounds := types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}
	intent := types.Intent{
		Bounds:     &bounds,
		Parameters: []string{"temp_adjusted"},
	}

	next := NewRefiner(nil).Refine(intent, nil)
	require.NotNil(t, next.Bounds)
	next.Bounds.MinLat = -90
	next.Parameters[0] = "psal_adjusted"

	assert.Equal(t, 10.0, bounds.MinLat)
	assert.Equal(t, "temp_adjusted", intent.Parameters[0])
}
