// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package agents

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedQuery_Deterministic(t *testing.T) {
	a := EmbedQuery("temperature inversions in the Arabian Sea")
	b := EmbedQuery("temperature inversions in the Arabian Sea")
	require.Len(t, a, EmbeddingDim)
	assert.Equal(t, a, b)
}

func TestEmbedQuery_CaseInsensitive(t *testing.T) {
	a := EmbedQuery("Salinity Near 7902073")
	b := EmbedQuery("salinity near 7902073")
	assert.Equal(t, a, b)
}

func TestEmbedQuery_UnitNorm(t *testing.T) {
	vec := EmbedQuery("show me salinity profiles in the Bay of Bengal")
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestEmbedQuery_DistinctTexts(t *testing.T) {
	assert.NotEqual(t, EmbedQuery("temperature"), EmbedQuery("salinity"))
}
