// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/argonaut/pkg/types"
)

func sessionContext(t *testing.T, st *Store, id string) *Context {
	t.Helper()
	ctx, ok := st.Context(id)
	require.True(t, ok)
	return ctx
}

func TestContextExtraction_Regions(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "Show me temperature in the Arabian Sea", nil)
	ctx := sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"arabian sea"}, ctx.RegionsDiscussed)
	assert.Equal(t, []string{"temperature"}, ctx.ParametersOfInterest)

	// Aliases resolve to the canonical region name, and repeats do not
	// duplicate entries.
	st.Append(sess.ID, types.RoleUser, "what about the southern ocean?", nil)
	st.Append(sess.ID, types.RoleUser, "southern indian ocean again please", nil)
	ctx = sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"arabian sea", "southern indian ocean"}, ctx.RegionsDiscussed)
}

func TestContextExtraction_BareIndianOcean(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "how many floats are in the indian ocean", nil)
	ctx := sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"indian ocean"}, ctx.RegionsDiscussed)

	// A named sub-basin mentions the basin too.
	st.Append(sess.ID, types.RoleUser, "narrow that to the equatorial indian ocean", nil)
	ctx = sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"indian ocean", "equatorial indian ocean"}, ctx.RegionsDiscussed)
}

func TestContextExtraction_FloatIDs(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "compare float 123 against 7902073", nil)
	ctx := sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"123", "7902073"}, ctx.FloatsAnalyzed)

	// Same platform through both spellings stays a single entry.
	st.Append(sess.ID, types.RoleAssistant, "Float 7902073 reported 3 profiles.", nil)
	ctx = sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"123", "7902073"}, ctx.FloatsAnalyzed)
}

func TestContextExtraction_FloatIDCap(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	for i := 1; i <= 25; i++ {
		st.Append(sess.ID, types.RoleUser, fmt.Sprintf("what about float %07d", 7900000+i), nil)
	}

	ctx := sessionContext(t, st, sess.ID)
	require.Len(t, ctx.FloatsAnalyzed, maxTrackedFloats)
	assert.Equal(t, "7900006", ctx.FloatsAnalyzed[0])
	assert.Equal(t, "7900025", ctx.FloatsAnalyzed[len(ctx.FloatsAnalyzed)-1])
}

func TestContextExtraction_ParameterLabels(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	// Aliases and column names record the canonical label.
	st.Append(sess.ID, types.RoleUser, "plot psal and temp profiles", nil)
	ctx := sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"temperature", "salinity"}, ctx.ParametersOfInterest)

	st.Append(sess.ID, types.RoleAssistant, "pres_adjusted ranged 5 to 2000 dbar", nil)
	ctx = sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"temperature", "salinity", "pressure"}, ctx.ParametersOfInterest)
}

func TestContextExtraction_ParameterWordBoundaries(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "an attempt at depth", nil)
	ctx := sessionContext(t, st, sess.ID)
	assert.Equal(t, []string{"pressure"}, ctx.ParametersOfInterest)
}

func TestContextExtraction_QueryTypes(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"compare salinity between the two regions", QueryComparative},
		{"arabian sea versus bay of bengal", QueryComparative},
		{"find similar temperature profiles", QueryPatternAnalysis},
		{"any anomalies last month?", QueryPatternAnalysis},
		{"show instrument metadata for that float", QueryMetadata},
		{"when was the deployment?", QueryMetadata},
		{"temperature data for the arabian sea", QueryMeasurement},
		{"hello there", QueryUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.want+"/"+tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyQuery(strings.ToLower(tc.query)))
		})
	}
}

func TestContextExtraction_OnlyUserTurnsRecorded(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "temperature data please", nil)
	st.Append(sess.ID, types.RoleAssistant, "Here is the temperature data you asked for.", nil)

	ctx := sessionContext(t, st, sess.ID)
	require.Len(t, ctx.PreviousQueries, 1)
	assert.Equal(t, QueryMeasurement, ctx.PreviousQueries[0].Type)
	assert.Equal(t, "temperature data please", ctx.PreviousQueries[0].Content)
}

func TestContextExtraction_QueryEchoClipped(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	long := strings.Repeat("salinity ", 30)
	st.Append(sess.ID, types.RoleUser, long, nil)

	ctx := sessionContext(t, st, sess.ID)
	require.Len(t, ctx.PreviousQueries, 1)
	assert.Len(t, []rune(ctx.PreviousQueries[0].Content), queryEchoRunes)
}

func TestContextExtraction_QueryCap(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	for i := 1; i <= 25; i++ {
		st.Append(sess.ID, types.RoleUser, fmt.Sprintf("query number %d", i), nil)
	}

	ctx := sessionContext(t, st, sess.ID)
	require.Len(t, ctx.PreviousQueries, maxTrackedQueries)
	assert.Equal(t, "query number 6", ctx.PreviousQueries[0].Content)
	assert.Equal(t, "query number 25", ctx.PreviousQueries[len(ctx.PreviousQueries)-1].Content)
}

func TestStore_ContextSummary(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(map[string]any{"detail_level": "brief"})

	st.Append(sess.ID, types.RoleUser, "Show temperature for float 7902073 in the Arabian Sea", nil)

	want := "Previous conversation context: " +
		"Regions discussed: arabian sea | " +
		"Floats analyzed: 7902073 | " +
		"Parameters of interest: temperature | " +
		"Recent query types: measurement | " +
		"User preferences: detail_level: brief"
	assert.Equal(t, want, st.ContextSummary(sess.ID))
}

func TestStore_ContextSummary_RecentQueryWindow(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	st.Append(sess.ID, types.RoleUser, "hello", nil)
	st.Append(sess.ID, types.RoleUser, "compare regions", nil)
	st.Append(sess.ID, types.RoleUser, "instrument metadata", nil)
	st.Append(sess.ID, types.RoleUser, "find similar patterns", nil)

	summary := st.ContextSummary(sess.ID)
	assert.Contains(t, summary, "Recent query types: comparative, metadata, pattern_analysis")
	assert.NotContains(t, summary, QueryUnknown)
}

func TestStore_ContextSummary_Empty(t *testing.T) {
	st, _ := testStore(t, Options{})
	sess := st.Create(nil)

	assert.Empty(t, st.ContextSummary(sess.ID))
	assert.Empty(t, st.ContextSummary("no-such-session"))
}

func TestContext_JSONShape(t *testing.T) {
	raw, err := json.Marshal(newContext())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"regions_discussed": [],
		"floats_analyzed": [],
		"parameters_of_interest": [],
		"analysis_preferences": {},
		"previous_queries": []
	}`, string(raw))
}
