// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package orchestration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

type staticVocab struct {
	v *config.Vocabulary
}

func (s staticVocab) Current() *config.Vocabulary { return s.v }

func testParser(t *testing.T) *Parser {
	t.Helper()
	p := NewParser(staticVocab{v: config.DefaultVocabulary()})
	p.now = func() time.Time {
		return time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)
	}
	return p
}

func TestParser_FloatID(t *testing.T) {
	intent := testParser(t).Parse("Show me float 2901234")
	assert.Equal(t, "2901234", intent.FloatID)
}

func TestParser_BareFloatID(t *testing.T) {
	intent := testParser(t).Parse("temperature profile for 2901234")
	assert.Equal(t, "2901234", intent.FloatID)

	intent = testParser(t).Parse("top 123 temperature rows")
	assert.Empty(t, intent.FloatID, "short numbers are not platform ids")
}

func TestParser_RegionSubstring(t *testing.T) {
	intent := testParser(t).Parse("Temperature in the Arabian Sea")
	assert.Equal(t, "Arabian Sea", intent.Region)
	require.NotNil(t, intent.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: 10, MaxLat: 25, MinLon: 55, MaxLon: 75}, *intent.Bounds)
}

func TestParser_RegionAlias(t *testing.T) {
	intent := testParser(t).Parse("southern ocean salinity trends")
	assert.Equal(t, "Southern Indian Ocean", intent.Region)
}

func TestParser_RegionFuzzyTypo(t *testing.T) {
	// Dropped letter: the subsequence matcher still resolves the region.
	intent := testParser(t).Parse("temperature in the arabin sea")
	assert.Equal(t, "Arabian Sea", intent.Region)
	require.NotNil(t, intent.Bounds)
	assert.Equal(t, 25.0, intent.Bounds.MaxLat)
}

func TestParser_NoRegionFalsePositive(t *testing.T) {
	intent := testParser(t).Parse("show me some information")
	assert.Empty(t, intent.Region)
	assert.Nil(t, intent.Bounds)
}

func TestParser_Coordinates(t *testing.T) {
	intent := testParser(t).Parse("data between 15-20°N and 60-65°E")
	assert.Empty(t, intent.Region)
	require.NotNil(t, intent.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: 15, MaxLat: 20, MinLon: 60, MaxLon: 65}, *intent.Bounds)
}

func TestParser_CoordinatesSouthWest(t *testing.T) {
	intent := testParser(t).Parse("profiles at 10-20S, 30-40W")
	require.NotNil(t, intent.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: -20, MaxLat: -10, MinLon: -40, MaxLon: -30}, *intent.Bounds)
}

func TestParser_CoordinatesOverrideRegionBox(t *testing.T) {
	intent := testParser(t).Parse("arabian sea data at 5-8N 50-55E")
	assert.Equal(t, "Arabian Sea", intent.Region)
	require.NotNil(t, intent.Bounds)
	assert.Equal(t, types.BoundingBox{MinLat: 5, MaxLat: 8, MinLon: 50, MaxLon: 55}, *intent.Bounds)
}

func TestParser_RelativeTime(t *testing.T) {
	intent := testParser(t).Parse("salinity over the last 30 days")
	require.NotNil(t, intent.TimeRange)
	now := time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-30*24*time.Hour), intent.TimeRange.Start)
	assert.Equal(t, now, intent.TimeRange.End)
}

func TestParser_RelativeTimeWeeks(t *testing.T) {
	intent := testParser(t).Parse("data from the past 2 weeks")
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, 14*24*time.Hour, intent.TimeRange.End.Sub(intent.TimeRange.Start))
}

func TestParser_MonthYear(t *testing.T) {
	intent := testParser(t).Parse("temperature in March 2023")
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), intent.TimeRange.Start)
	assert.Equal(t, time.Date(2023, time.March, 31, 23, 59, 59, 0, time.UTC), intent.TimeRange.End)
}

func TestParser_Year(t *testing.T) {
	intent := testParser(t).Parse("floats deployed in 2022")
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), intent.TimeRange.Start)
	assert.Equal(t, time.Date(2022, time.December, 31, 23, 59, 59, 0, time.UTC), intent.TimeRange.End)
}

func TestParser_Recent(t *testing.T) {
	intent := testParser(t).Parse("recent measurements")
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, 30*24*time.Hour, intent.TimeRange.End.Sub(intent.TimeRange.Start))
}

func TestParser_NoTimeRange(t *testing.T) {
	intent := testParser(t).Parse("temperature in the arabian sea")
	assert.Nil(t, intent.TimeRange)
}

func TestParser_Depth(t *testing.T) {
	intent := testParser(t).Parse("profiles from 100-500m in the water column")
	require.NotNil(t, intent.Depth)
	assert.Equal(t, types.DepthRange{Min: 100, Max: 500}, *intent.Depth)
}

func TestParser_DepthReversedBoundsSwap(t *testing.T) {
	intent := testParser(t).Parse("profiles from 500-100 dbar")
	require.NotNil(t, intent.Depth)
	assert.Equal(t, types.DepthRange{Min: 100, Max: 500}, *intent.Depth)
}

func TestParser_Parameters(t *testing.T) {
	intent := testParser(t).Parse("compare temperature and salinity")
	assert.Equal(t, []string{"temp_adjusted", "psal_adjusted"}, intent.Parameters)
}

func TestParser_ParametersDeduplicated(t *testing.T) {
	intent := testParser(t).Parse("temperature temp thermal readings")
	assert.Equal(t, []string{"temp_adjusted"}, intent.Parameters)
}

func TestParser_Limit(t *testing.T) {
	intent := testParser(t).Parse("top 50 temperature measurements")
	assert.Equal(t, 50, intent.Limit)
}

func TestParser_AgentFamilies(t *testing.T) {
	cases := []struct {
		query       string
		measurement bool
		metadata    bool
		semantic    bool
	}{
		{"temperature in the arabian sea", true, false, false},
		{"find similar patterns", false, false, true},
		{"what parameters are available", false, true, false},
		{"compare temperature data with similar events", true, false, true},
		{"deployment metadata for the bay of bengal", false, true, false},
		{"tell me about the ocean", true, true, true},
	}
	for _, tc := range cases {
		intent := testParser(t).Parse(tc.query)
		assert.Equal(t, tc.measurement, intent.Agents.Has(types.AgentMeasurement), "measurement: %s", tc.query)
		assert.Equal(t, tc.metadata, intent.Agents.Has(types.AgentMetadata), "metadata: %s", tc.query)
		assert.Equal(t, tc.semantic, intent.Agents.Has(types.AgentSemantic), "semantic: %s", tc.query)
	}
}

func TestParser_FullQuery(t *testing.T) {
	intent := testParser(t).Parse("Show temperature data for float 2901234 in the Arabian Sea in March 2023 limit 100")

	assert.Equal(t, "2901234", intent.FloatID)
	assert.Equal(t, "Arabian Sea", intent.Region)
	require.NotNil(t, intent.Bounds)
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, []string{"temp_adjusted"}, intent.Parameters)
	assert.Equal(t, 100, intent.Limit)
	assert.True(t, intent.Agents.Has(types.AgentMeasurement))
	assert.False(t, intent.Agents.Has(types.AgentSemantic))
}
