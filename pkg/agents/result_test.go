// Copyright © 2026 Teradata Corporation - All Rights Reserved.
// Unauthorized copying of this file, via any medium is strictly prohibited.
// Proprietary and confidential.

package agents

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/argonaut/pkg/types"
)

func TestErrorResult_KeepsClassifiedKind(t *testing.T) {
	orig := types.NewError(types.KindInvalidInput, "bad request")
	res := ErrorResult(types.AgentMeasurement, orig, time.Millisecond)

	require.True(t, res.Errored())
	assert.Equal(t, types.AgentMeasurement, res.Agent)
	assert.Equal(t, types.KindInvalidInput, res.Err.Kind)
	assert.Equal(t, "bad request", res.Err.Message)
}

func TestErrorResult_WrapsPlainError(t *testing.T) {
	res := ErrorResult(types.AgentSemantic, errors.New("boom"), 0)

	require.True(t, res.Errored())
	assert.Equal(t, types.KindInternal, res.Err.Kind)
	assert.ErrorContains(t, res.Err, "boom")
}

func TestStructToMap_FollowsJSONTags(t *testing.T) {
	m := structToMap(&types.FloatMetadata{
		PlatformNumber: "2901234",
		Region:         "Arabian Sea",
		Parameters:     []string{"TEMP", "PSAL"},
	})

	require.NotNil(t, m)
	assert.Equal(t, "2901234", m["platform_number"])
	assert.Equal(t, "Arabian Sea", m["region"])
}

func TestRowsToMaps_NaNBecomesNull(t *testing.T) {
	rows := rowsToMaps([]types.Measurement{{
		PlatformNumber: "7902073",
		Time:           time.Date(2023, 3, 15, 12, 0, 0, 0, time.UTC),
		Latitude:       15.5,
		Longitude:      62.0,
		Pressure:       100,
		Temperature:    math.NaN(),
		Salinity:       35.1,
	}})

	require.Len(t, rows, 1)
	assert.Equal(t, "7902073", rows[0]["platform_number"])
	assert.Equal(t, "2023-03-15T12:00:00Z", rows[0]["juld"])
	assert.Nil(t, rows[0]["temp_adjusted"])
	assert.Equal(t, 35.1, rows[0]["psal_adjusted"])
}
