// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package visualization

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// measurementRows fabricates rows with the full field set.
func measurementRows(n int) []map[string]any {
	rows := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, map[string]any{
			"platform_number": fmt.Sprintf("790%04d", i%3),
			"juld":            fmt.Sprintf("2023-03-%02dT12:00:00Z", i%28+1),
			"latitude":        15.0 + float64(i)*0.01,
			"longitude":       60.0 + float64(i)*0.01,
			"pres_adjusted":   float64(i * 10),
			"temp_adjusted":   28.0 - float64(i)*0.05,
			"psal_adjusted":   35.0 + float64(i)*0.01,
		})
	}
	return rows
}

func TestBuild_FullFieldSet(t *testing.T) {
	charts := Build(measurementRows(20))

	types := make([]ChartType, 0, len(charts))
	for _, c := range charts {
		types = append(types, c.Type)
	}
	assert.Equal(t, []ChartType{
		ChartTypeLine,
		ChartTypeArea,
		ChartTypeScatter,
		ChartTypeComposed,
		ChartTypeMapPoints,
		ChartTypeHeatmap,
		ChartTypeScatter3D,
		ChartTypeBar,
	}, types)
}

func TestBuild_Empty(t *testing.T) {
	assert.Nil(t, Build(nil))
	assert.Nil(t, Build([]map[string]any{}))
}

func TestBuild_LineEncodings(t *testing.T) {
	charts := Build(measurementRows(5))
	require.NotEmpty(t, charts)

	line := charts[0]
	assert.Equal(t, ChartTypeLine, line.Type)
	assert.Equal(t, "Temperature Over Time", line.Title)
	assert.Equal(t, "juld", line.Encodings.X)
	assert.Equal(t, "temp_adjusted", line.Encodings.Y)
	assert.True(t, line.Options.Tooltip)
	assert.True(t, line.Options.ConnectNulls)
	assert.Equal(t, 400, line.Styling.Height)
	assert.Contains(t, line.Data.Fields, "juld")
	assert.Contains(t, line.Data.Fields, "temp_adjusted")
}

func TestBuild_ScatterReversesY(t *testing.T) {
	charts := Build(measurementRows(5))

	var scatter *Chart
	for i := range charts {
		if charts[i].Type == ChartTypeScatter {
			scatter = &charts[i]
			break
		}
	}
	require.NotNil(t, scatter)
	assert.Equal(t, "temp_adjusted", scatter.Encodings.X)
	assert.Equal(t, "pres_adjusted", scatter.Encodings.Y)
	assert.True(t, scatter.Options.ReverseY)
	assert.Equal(t, []string{"#82ca9d", "#8884d8"}, scatter.Styling.Colors)
}

func TestBuild_ComposedSeries(t *testing.T) {
	charts := Build(measurementRows(5))

	var composed *Chart
	for i := range charts {
		if charts[i].Type == ChartTypeComposed {
			composed = &charts[i]
			break
		}
	}
	require.NotNil(t, composed)
	assert.Equal(t, []string{"temp_adjusted", "psal_adjusted"}, composed.Encodings.Series)
	assert.Equal(t, "temp_adjusted", composed.Encodings.Y)
	assert.Equal(t, "psal_adjusted", composed.Encodings.Y2)
}

func TestBuild_RowCaps(t *testing.T) {
	charts := Build(measurementRows(600))

	for _, chart := range charts {
		switch chart.Type {
		case ChartTypeMapPoints, ChartTypeScatter3D:
			assert.Len(t, chart.Data.Rows, spatialRowCap, "chart %s", chart.Type)
		case ChartTypeBar:
			assert.LessOrEqual(t, len(chart.Data.Rows), barCategoryCap)
		default:
			assert.Len(t, chart.Data.Rows, defaultRowCap, "chart %s", chart.Type)
		}
	}
}

func TestBuild_BarCounts(t *testing.T) {
	rows := make([]map[string]any, 0, 30)
	for i := 0; i < 20; i++ {
		rows = append(rows, map[string]any{"platform_number": "7902073", "juld": "2023-03-15T12:00:00Z", "temp_adjusted": 28.0})
	}
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]any{"platform_number": "2901234", "juld": "2023-03-16T12:00:00Z", "temp_adjusted": 24.0})
	}

	charts := Build(rows)
	var bar *Chart
	for i := range charts {
		if charts[i].Type == ChartTypeBar {
			bar = &charts[i]
			break
		}
	}
	require.NotNil(t, bar)
	require.Len(t, bar.Data.Rows, 2)
	assert.Equal(t, "7902073", bar.Data.Rows[0]["platform_number"])
	assert.Equal(t, 20, bar.Data.Rows[0]["count"])
	assert.Equal(t, "2901234", bar.Data.Rows[1]["platform_number"])
	assert.Equal(t, 10, bar.Data.Rows[1]["count"])
	assert.Equal(t, []string{"platform_number", "count"}, bar.Data.Fields)
}

func TestBuild_WithoutSpatialFields(t *testing.T) {
	rows := []map[string]any{
		{"juld": "2023-03-15T12:00:00Z", "temp_adjusted": 28.4},
		{"juld": "2023-03-10T12:00:00Z", "temp_adjusted": 24.1},
	}

	charts := Build(rows)
	for _, chart := range charts {
		assert.NotContains(t, []ChartType{ChartTypeMapPoints, ChartTypeHeatmap, ChartTypeScatter3D}, chart.Type)
	}
}

func TestBuild_AliasFields(t *testing.T) {
	rows := []map[string]any{
		{"time": "2023-03-15T12:00:00Z", "temperature": 28.4, "lat": 15.2, "lon": 62.1},
	}

	charts := Build(rows)
	require.NotEmpty(t, charts)
	assert.Equal(t, "time", charts[0].Encodings.X)
	assert.Equal(t, "temperature", charts[0].Encodings.Y)

	var points *Chart
	for i := range charts {
		if charts[i].Type == ChartTypeMapPoints {
			points = &charts[i]
			break
		}
	}
	require.NotNil(t, points)
	assert.Equal(t, "lat", points.Encodings.Latitude)
	assert.Equal(t, "lon", points.Encodings.Longitude)
}

func TestRender_FencedBlock(t *testing.T) {
	block := Render(measurementRows(5))

	require.True(t, strings.HasPrefix(block, "```viz\n"))
	require.True(t, strings.HasSuffix(block, "\n```"))

	inner := strings.TrimSuffix(strings.TrimPrefix(block, "```viz\n"), "\n```")
	var payload Payload
	require.NoError(t, json.Unmarshal([]byte(inner), &payload))
	assert.NotEmpty(t, payload.Visualizations)
}

func TestRender_EmptyRows(t *testing.T) {
	assert.Empty(t, Render(nil))
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "Temperature", labelFor("temp_adjusted"))
	assert.Equal(t, "Salinity", labelFor("psal_adjusted"))
	assert.Equal(t, "Pressure", labelFor("pressure"))
	assert.Equal(t, "Mixed Layer Depth", labelFor("mixed_layer_depth"))
}
