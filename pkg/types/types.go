// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package types contains shared types used across the argonaut gateway.
// This package breaks import cycles by providing common types that the
// agent, orchestration, and backend packages all depend on.
package types

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

// ============================================================================
// LLM Types
// ============================================================================

// Message roles understood by every LLM provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversational turn sent to an LLM provider.
type Message struct {
	// Role is one of RoleUser, RoleAssistant, or RoleSystem
	Role string `json:"role"`

	// Content is the plain-text body of the turn
	Content string `json:"content"`
}

// CompletionRequest describes one LLM call.
type CompletionRequest struct {
	// System is the system prompt, empty when the call has none
	System string

	// Messages is the conversation so far, oldest first
	Messages []Message

	// Temperature controls sampling; 0 requests deterministic output
	Temperature float64

	// MaxTokens caps the response length; 0 means the provider default
	MaxTokens int64
}

// LLMProvider abstracts hosted LLM APIs behind a single completion call.
type LLMProvider interface {
	// Complete sends the request and returns the assistant text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name ("anthropic", "bedrock").
	Name() string

	// Model returns the model identifier in use.
	Model() string
}

// ============================================================================
// Geospatial and Temporal Types
// ============================================================================

// BoundingBox is a latitude/longitude rectangle in decimal degrees.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Expand grows the box by deg degrees on every side, clamping latitude to
// ±90 and longitude to ±180.
func (b BoundingBox) Expand(deg float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Max(b.MinLat-deg, -90),
		MaxLat: math.Min(b.MaxLat+deg, 90),
		MinLon: math.Max(b.MinLon-deg, -180),
		MaxLon: math.Min(b.MaxLon+deg, 180),
	}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// TimeRange is an inclusive time window; both endpoints are part of it.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Widen extends the window by frac of its current span on each side.
// A zero-span range is returned unchanged.
func (t TimeRange) Widen(frac float64) TimeRange {
	span := t.End.Sub(t.Start)
	if span <= 0 {
		return t
	}
	pad := time.Duration(float64(span) * frac)
	return TimeRange{Start: t.Start.Add(-pad), End: t.End.Add(pad)}
}

// IsZero reports whether neither endpoint is set.
func (t TimeRange) IsZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}

// DepthRange selects measurements between two pressure levels in decibars.
// In the Argo convention 1 dbar is close to 1 meter of depth.
type DepthRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ============================================================================
// Agent Selection
// ============================================================================

// AgentKind names one of the three specialist agents.
type AgentKind string

const (
	AgentMeasurement AgentKind = "measurement"
	AgentMetadata    AgentKind = "metadata"
	AgentSemantic    AgentKind = "semantic"
)

// AgentMask is a bit set of agents demanded by a query.
type AgentMask uint8

const (
	MaskMeasurement AgentMask = 1 << iota
	MaskMetadata
	MaskSemantic
)

func maskBit(k AgentKind) AgentMask {
	switch k {
	case AgentMeasurement:
		return MaskMeasurement
	case AgentMetadata:
		return MaskMetadata
	case AgentSemantic:
		return MaskSemantic
	}
	return 0
}

// MaskOf builds a mask from the given kinds.
func MaskOf(kinds ...AgentKind) AgentMask {
	var m AgentMask
	for _, k := range kinds {
		m |= maskBit(k)
	}
	return m
}

// Has reports whether kind k is in the mask.
func (m AgentMask) Has(k AgentKind) bool {
	return m&maskBit(k) != 0
}

// With returns the mask with kind k added.
func (m AgentMask) With(k AgentKind) AgentMask {
	return m | maskBit(k)
}

// IsEmpty reports whether no agents are selected.
func (m AgentMask) IsEmpty() bool {
	return m == 0
}

// Kinds returns the selected kinds in fixed order: measurement, metadata,
// semantic.
func (m AgentMask) Kinds() []AgentKind {
	var out []AgentKind
	for _, k := range []AgentKind{AgentMeasurement, AgentMetadata, AgentSemantic} {
		if m.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// ============================================================================
// Query Intent
// ============================================================================

// Intent is the structured reading of a user query. Pointer fields are nil
// when the query did not constrain that dimension.
type Intent struct {
	// FloatID is a 7-digit Argo platform number, empty when absent
	FloatID string `json:"float_id,omitempty"`

	// Region is the canonical region name ("Arabian Sea"), empty when absent
	Region string `json:"region,omitempty"`

	// Bounds is the spatial constraint
	Bounds *BoundingBox `json:"bounds,omitempty"`

	// TimeRange is the temporal constraint
	TimeRange *TimeRange `json:"time_range,omitempty"`

	// Depth is the pressure-level constraint
	Depth *DepthRange `json:"depth,omitempty"`

	// Parameters lists canonical parameter names the query mentioned
	Parameters []string `json:"parameters,omitempty"`

	// Agents is the set of agents the query demands
	Agents AgentMask `json:"-"`

	// Limit caps result rows; 0 means the agent default
	Limit int `json:"limit,omitempty"`

	// SemanticBroadened widens the similarity search on refinement
	SemanticBroadened bool `json:"semantic_broadened,omitempty"`

	// MetadataEnhanced adds the region hierarchy on refinement
	MetadataEnhanced bool `json:"metadata_enhanced,omitempty"`
}

// Clone returns a deep copy so refinement never aliases the original.
func (in Intent) Clone() Intent {
	out := in
	if in.Bounds != nil {
		b := *in.Bounds
		out.Bounds = &b
	}
	if in.TimeRange != nil {
		t := *in.TimeRange
		out.TimeRange = &t
	}
	if in.Depth != nil {
		d := *in.Depth
		out.Depth = &d
	}
	if in.Parameters != nil {
		out.Parameters = append([]string(nil), in.Parameters...)
	}
	return out
}

// ============================================================================
// Measurement Data
// ============================================================================

// Measurement is one Argo profile level. Field names follow the Argo
// delayed-mode column convention. Missing values are NaN in memory and
// null on the wire.
type Measurement struct {
	PlatformNumber string    `json:"platform_number"`
	Time           time.Time `json:"juld"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Pressure       float64   `json:"pres_adjusted"`
	Temperature    float64   `json:"temp_adjusted"`
	Salinity       float64   `json:"psal_adjusted"`
}

// MarshalJSON writes NaN measured values as null so rows stay valid JSON.
func (m Measurement) MarshalJSON() ([]byte, error) {
	opt := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		PlatformNumber string   `json:"platform_number"`
		Time           string   `json:"juld"`
		Latitude       float64  `json:"latitude"`
		Longitude      float64  `json:"longitude"`
		Pressure       *float64 `json:"pres_adjusted"`
		Temperature    *float64 `json:"temp_adjusted"`
		Salinity       *float64 `json:"psal_adjusted"`
	}{
		PlatformNumber: m.PlatformNumber,
		Time:           m.Time.UTC().Format(time.RFC3339),
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		Pressure:       opt(m.Pressure),
		Temperature:    opt(m.Temperature),
		Salinity:       opt(m.Salinity),
	})
}

// ParamStats summarizes one measured parameter, ignoring NaN values.
type ParamStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// SpatialCoverage describes the geographic footprint of a result set.
type SpatialCoverage struct {
	LatRange [2]float64 `json:"lat_range"`
	LonRange [2]float64 `json:"lon_range"`
	Center   [2]float64 `json:"center"`
}

// AggregateBucket is one time-bucketed aggregate of a parameter.
type AggregateBucket struct {
	Bucket time.Time `json:"bucket"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
	Count  int       `json:"count"`
}

// ============================================================================
// Semantic Search
// ============================================================================

// SemanticHit is one similarity match from the vector store.
type SemanticHit struct {
	PlatformNumber string         `json:"platform_number"`
	Time           time.Time      `json:"time"`
	Score          float64        `json:"score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// SemanticFilters narrows a similarity search.
type SemanticFilters struct {
	// Region restricts hits to measurements tagged with this region name
	Region string

	// TimeRange restricts hits to this window
	TimeRange *TimeRange

	// Parameter restricts hits to profiles carrying this parameter
	Parameter string
}

// ============================================================================
// Graph Metadata
// ============================================================================

// FloatMetadata describes one float as recorded in the graph store.
type FloatMetadata struct {
	PlatformNumber string   `json:"platform_number"`
	Region         string   `json:"region"`
	Parameters     []string `json:"parameters"`
}

// RegionMetadata describes one region node.
type RegionMetadata struct {
	Name         string   `json:"name"`
	ParentRegion string   `json:"parent_region,omitempty"`
	FloatCount   int      `json:"float_count"`
	Subregions   []string `json:"subregions,omitempty"`
}

// RegionNode is one level of the recursive region hierarchy.
type RegionNode struct {
	Name       string                 `json:"name"`
	FloatCount int                    `json:"float_count"`
	Children   map[string]*RegionNode `json:"children,omitempty"`
}
