// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package visualization

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	// defaultRowCap bounds rows per chart.
	defaultRowCap = 500
	// spatialRowCap bounds rows for map and 3d charts, which render every
	// point individually.
	spatialRowCap = 200
	// barCategoryCap bounds the number of platforms on the bar chart.
	barCategoryCap = 10
)

// Axis field candidates, in preference order. Adjusted parameter columns
// win over their raw aliases.
var (
	valueFields     = []string{"temp_adjusted", "psal_adjusted", "pres_adjusted", "temperature", "salinity", "pressure"}
	timeFields      = []string{"juld", "time", "timestamp", "date"}
	latitudeFields  = []string{"latitude", "lat"}
	longitudeFields = []string{"longitude", "lon"}
	pressureFields  = []string{"pres_adjusted", "pressure"}
	tempFields      = []string{"temp_adjusted", "temperature"}
	salinityFields  = []string{"psal_adjusted", "salinity"}
)

// Build derives every chart the row fields support, in a fixed order:
// line, area, scatter, composed, map_points, heatmap, scatter3d, bar.
func Build(rows []map[string]any) []Chart {
	if len(rows) == 0 {
		return nil
	}

	charts := make([]Chart, 0, 8)
	builders := []func([]map[string]any) (Chart, bool){
		lineChart,
		areaChart,
		scatterChart,
		composedChart,
		mapChart,
		heatmapChart,
		scatter3DChart,
		barChart,
	}
	for _, build := range builders {
		if chart, ok := build(rows); ok {
			charts = append(charts, chart)
		}
	}
	return charts
}

// Render builds all supported charts and wraps them in a fenced viz block.
// Returns "" when no chart applies.
func Render(rows []map[string]any) string {
	charts := Build(rows)
	if len(charts) == 0 {
		return ""
	}
	payload, err := json.Marshal(Payload{Visualizations: charts})
	if err != nil {
		return ""
	}
	return "```viz\n" + string(payload) + "\n```"
}

// lineChart plots the first available parameter over time.
func lineChart(rows []map[string]any) (Chart, bool) {
	timeKey := firstPresent(rows[0], timeFields)
	valueKey := firstPresent(rows[0], valueFields)
	if timeKey == "" || valueKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, defaultRowCap)
	return Chart{
		Type:      ChartTypeLine,
		Title:     fmt.Sprintf("%s Over Time", labelFor(valueKey)),
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{X: timeKey, Y: valueKey},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 400, Margin: defaultMargin},
	}, true
}

// areaChart shows the temperature trend with a gradient fill.
func areaChart(rows []map[string]any) (Chart, bool) {
	timeKey := firstPresent(rows[0], timeFields)
	tempKey := firstPresent(rows[0], tempFields)
	if timeKey == "" || tempKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, defaultRowCap)
	opts := defaultOptions()
	opts.Gradient = true
	return Chart{
		Type:      ChartTypeArea,
		Title:     "Temperature Trend",
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{X: timeKey, Y: tempKey},
		Options:   opts,
		Styling:   Styling{Height: 400, Margin: defaultMargin},
	}, true
}

// scatterChart plots a parameter against pressure. Pressure proxies depth
// (1 dbar ≈ 1 m), so the y axis is reversed to read surface-down.
func scatterChart(rows []map[string]any) (Chart, bool) {
	presKey := firstPresent(rows[0], pressureFields)
	valueKey := firstPresent(rows[0], tempFields)
	if valueKey == "" {
		valueKey = firstPresent(rows[0], salinityFields)
	}
	if presKey == "" || valueKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, defaultRowCap)
	opts := defaultOptions()
	opts.ReverseY = true
	return Chart{
		Type:      ChartTypeScatter,
		Title:     fmt.Sprintf("%s vs Pressure", labelFor(valueKey)),
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{X: valueKey, Y: presKey},
		Options:   opts,
		Styling:   Styling{Height: 400, Margin: defaultMargin, Colors: []string{"#82ca9d", "#8884d8"}},
	}, true
}

// composedChart overlays two parameters over time on dual axes.
func composedChart(rows []map[string]any) (Chart, bool) {
	timeKey := firstPresent(rows[0], timeFields)
	if timeKey == "" {
		return Chart{}, false
	}
	series := presentFields(rows[0], valueFields)
	if len(series) < 2 {
		return Chart{}, false
	}
	series = series[:2]

	sampled := sample(rows, defaultRowCap)
	return Chart{
		Type:      ChartTypeComposed,
		Title:     "Multi-Parameter Time Series",
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{X: timeKey, Y: series[0], Y2: series[1], Series: series},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 400, Margin: defaultMargin, Colors: []string{"#8884d8", "#82ca9d"}},
	}, true
}

// mapChart plots float positions.
func mapChart(rows []map[string]any) (Chart, bool) {
	latKey := firstPresent(rows[0], latitudeFields)
	lonKey := firstPresent(rows[0], longitudeFields)
	if latKey == "" || lonKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, spatialRowCap)
	return Chart{
		Type:      ChartTypeMapPoints,
		Title:     "Float Positions",
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{Latitude: latKey, Longitude: lonKey},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 400, Margin: defaultMargin},
	}, true
}

// heatmapChart shades the spatial temperature distribution.
func heatmapChart(rows []map[string]any) (Chart, bool) {
	latKey := firstPresent(rows[0], latitudeFields)
	lonKey := firstPresent(rows[0], longitudeFields)
	tempKey := firstPresent(rows[0], tempFields)
	if latKey == "" || lonKey == "" || tempKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, defaultRowCap)
	return Chart{
		Type:      ChartTypeHeatmap,
		Title:     "Temperature Distribution",
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{Latitude: latKey, Longitude: lonKey, Value: tempKey},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 400, Margin: defaultMargin},
	}, true
}

// scatter3DChart plots measurement positions with depth.
func scatter3DChart(rows []map[string]any) (Chart, bool) {
	latKey := firstPresent(rows[0], latitudeFields)
	lonKey := firstPresent(rows[0], longitudeFields)
	presKey := firstPresent(rows[0], pressureFields)
	if latKey == "" || lonKey == "" || presKey == "" {
		return Chart{}, false
	}

	sampled := sample(rows, spatialRowCap)
	return Chart{
		Type:      ChartTypeScatter3D,
		Title:     "Profile Depth Distribution",
		Data:      Data{Fields: fieldsOf(sampled), Rows: sampled},
		Encodings: Encodings{X: lonKey, Y: latKey, Z: presKey},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 400, Margin: defaultMargin},
	}, true
}

// barChart counts measurements per float for result sets spanning more
// than ten rows.
func barChart(rows []map[string]any) (Chart, bool) {
	if len(rows) <= 10 {
		return Chart{}, false
	}
	if firstPresent(rows[0], []string{"platform_number"}) == "" {
		return Chart{}, false
	}

	counts := make(map[string]int)
	for _, row := range rows {
		if platform, ok := row["platform_number"].(string); ok && platform != "" {
			counts[platform]++
		}
	}
	if len(counts) == 0 {
		return Chart{}, false
	}

	platforms := make([]string, 0, len(counts))
	for platform := range counts {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool {
		if counts[platforms[i]] != counts[platforms[j]] {
			return counts[platforms[i]] > counts[platforms[j]]
		}
		return platforms[i] < platforms[j]
	})
	if len(platforms) > barCategoryCap {
		platforms = platforms[:barCategoryCap]
	}

	barRows := make([]map[string]any, 0, len(platforms))
	for _, platform := range platforms {
		barRows = append(barRows, map[string]any{"platform_number": platform, "count": counts[platform]})
	}

	return Chart{
		Type:      ChartTypeBar,
		Title:     "Measurements Per Float",
		Data:      Data{Fields: []string{"platform_number", "count"}, Rows: barRows},
		Encodings: Encodings{Category: "platform_number", Value: "count"},
		Options:   defaultOptions(),
		Styling:   Styling{Height: 300, Margin: defaultMargin},
	}, true
}

// sample returns the first n rows.
func sample(rows []map[string]any, n int) []map[string]any {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}

// firstPresent returns the first candidate key present in the row.
func firstPresent(row map[string]any, candidates []string) string {
	for _, key := range candidates {
		if _, ok := row[key]; ok {
			return key
		}
	}
	return ""
}

// presentFields returns every candidate key present in the row, keeping
// candidate order.
func presentFields(row map[string]any, candidates []string) []string {
	present := make([]string, 0, len(candidates))
	for _, key := range candidates {
		if _, ok := row[key]; ok {
			present = append(present, key)
		}
	}
	return present
}

// fieldsOf lists the first row's keys in sorted order.
func fieldsOf(rows []map[string]any) []string {
	if len(rows) == 0 {
		return nil
	}
	fields := make([]string, 0, len(rows[0]))
	for key := range rows[0] {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	return fields
}

// labelFor maps a column name to a display label.
func labelFor(field string) string {
	switch field {
	case "temp_adjusted", "temperature":
		return "Temperature"
	case "psal_adjusted", "salinity":
		return "Salinity"
	case "pres_adjusted", "pressure":
		return "Pressure"
	}
	return toTitle(strings.ReplaceAll(field, "_", " "))
}

// toTitle converts a string to title case (first letter of each word
// capitalized). Replaces deprecated strings.Title.
func toTitle(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}
