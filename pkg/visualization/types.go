// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package visualization builds chart specifications from measurement rows.
// Charts are embedded in chat responses as a fenced ```viz block the
// frontend renders directly.
package visualization

// ChartType represents the type of visualization
type ChartType string

const (
	ChartTypeLine      ChartType = "line"
	ChartTypeArea      ChartType = "area"
	ChartTypeScatter   ChartType = "scatter"
	ChartTypeScatter3D ChartType = "scatter3d"
	ChartTypeComposed  ChartType = "composed"
	ChartTypeBar       ChartType = "bar"
	ChartTypeMapPoints ChartType = "map_points"
	ChartTypeHeatmap   ChartType = "heatmap"
)

// Payload is the top-level structure of a viz block.
type Payload struct {
	Visualizations []Chart `json:"visualizations"`
}

// Chart represents a single renderable chart with embedded data
type Chart struct {
	Type      ChartType `json:"type"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Data      Data      `json:"data"`
	Encodings Encodings `json:"encodings"`
	Options   Options   `json:"options"`
	Styling   Styling   `json:"styling"`
}

// Data carries the chart's rows plus the field names present in them.
type Data struct {
	Fields []string         `json:"fields"`
	Rows   []map[string]any `json:"rows"`
}

// Encodings maps chart axes to row fields.
type Encodings struct {
	X         string   `json:"x,omitempty"`
	Y         string   `json:"y,omitempty"`
	Y2        string   `json:"y2,omitempty"`
	Z         string   `json:"z,omitempty"`
	Latitude  string   `json:"latitude,omitempty"`
	Longitude string   `json:"longitude,omitempty"`
	Value     string   `json:"value,omitempty"`
	Category  string   `json:"category,omitempty"`
	Series    []string `json:"series,omitempty"`
}

// Options toggles renderer behavior.
type Options struct {
	Tooltip      bool `json:"tooltip"`
	ConnectNulls bool `json:"connectNulls"`
	Animation    bool `json:"animation"`
	ShowLegend   bool `json:"showLegend"`
	ShowGrid     bool `json:"showGrid"`
	ShowAxes     bool `json:"showAxes"`
	Interactive  bool `json:"interactive"`
	ReverseY     bool `json:"reverseY,omitempty"`
	Gradient     bool `json:"gradient,omitempty"`
}

// Styling holds layout hints for the renderer.
type Styling struct {
	Height int      `json:"height"`
	Margin Margin   `json:"margin"`
	Colors []string `json:"colors,omitempty"`
}

// Margin is the chart padding in pixels.
type Margin struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// defaultMargin is shared by every chart.
var defaultMargin = Margin{Top: 20, Right: 30, Bottom: 20, Left: 20}

// defaultOptions enables the full interactive feature set.
func defaultOptions() Options {
	return Options{
		Tooltip:      true,
		ConnectNulls: true,
		Animation:    true,
		ShowLegend:   true,
		ShowGrid:     true,
		ShowAxes:     true,
		Interactive:  true,
	}
}
