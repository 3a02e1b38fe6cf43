// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package orchestration runs the cyclic analysis pipeline: parse the query
// into an intent, fan the demanded agents out in parallel, score the
// results, and either refine the intent for another cycle or synthesize
// the final answer.
package orchestration

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// minFuzzyLen keeps tiny word windows ("in a") out of the fuzzy region
// matcher.
const minFuzzyLen = 5

var (
	floatIDPattern   = regexp.MustCompile(`float\s+(\d+)`)
	bareIDPattern    = regexp.MustCompile(`\b(\d{7})\b`)
	coordPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*°?\s*(n|s)\b[^0-9]*?(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*°?\s*(e|w)\b`)
	depthPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*(?:m|meters|metres|dbar)\b`)
	relativePattern  = regexp.MustCompile(`(?:last|past)\s+(\d+)\s+(day|week|month|year)s?`)
	monthYearPattern = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})`)
	yearPattern      = regexp.MustCompile(`\bin\s+((?:19|20)\d{2})\b`)
	limitPattern     = regexp.MustCompile(`(?:limit|top|first)\s+(\d+)`)
	wordPattern      = regexp.MustCompile(`[a-z_]+`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// agentFamilies maps keyword families to the agent each demands. A query
// matching no family demands all agents.
var agentFamilies = []struct {
	kind  types.AgentKind
	words []string
}{
	{types.AgentMeasurement, []string{"temperature", "salinity", "pressure", "measurement", "data", "profile"}},
	{types.AgentMetadata, []string{"metadata", "instrument", "parameter", "deployment", "coverage", "available"}},
	{types.AgentSemantic, []string{"similar", "pattern", "inversion", "anomal", "compare", "find"}},
}

// VocabularySource serves the current region and parameter vocabulary.
type VocabularySource interface {
	Current() *config.Vocabulary
}

// Parser turns a natural-language query into a typed Intent. Parsing is
// deterministic; no LLM is involved.
type Parser struct {
	vocab VocabularySource
	now   func() time.Time
}

// NewParser builds the parser on the given vocabulary.
func NewParser(vocab VocabularySource) *Parser {
	return &Parser{vocab: vocab, now: time.Now}
}

// Parse extracts the query's constraints and demanded agents.
func (p *Parser) Parse(query string) types.Intent {
	lower := strings.ToLower(query)
	vocab := p.vocab.Current()

	var intent types.Intent

	if m := floatIDPattern.FindStringSubmatch(lower); m != nil {
		intent.FloatID = m[1]
	} else if m := bareIDPattern.FindStringSubmatch(lower); m != nil {
		intent.FloatID = m[1]
	}

	if region, ok := p.matchRegion(lower, vocab); ok {
		intent.Region = region.Name
		b := region.Bounds()
		intent.Bounds = &b
	}

	// Explicit coordinates override the region box but keep its name.
	if b, ok := parseCoordinates(lower); ok {
		intent.Bounds = &b
	}

	if tr, ok := p.parseTimeRange(lower); ok {
		intent.TimeRange = &tr
	}

	if d, ok := parseDepth(lower); ok {
		intent.Depth = &d
	}

	intent.Parameters = parseParameters(lower, vocab)

	if m := limitPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			intent.Limit = n
		}
	}

	intent.Agents = demandedAgents(lower)
	return intent
}

// matchRegion resolves a region by substring first, then by fuzzy ranking.
func (p *Parser) matchRegion(lower string, vocab *config.Vocabulary) (config.RegionEntry, bool) {
	for _, r := range vocab.Regions {
		if strings.Contains(lower, strings.ToLower(r.Name)) {
			return r, true
		}
		for _, alias := range r.Aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return r, true
			}
		}
	}
	return fuzzyRegion(lower, vocab)
}

// fuzzyRegion ranks word windows of the query against region names and
// aliases. The subsequence matcher recovers dropped-letter typos
// ("arabin sea"); substitutions do not match.
func fuzzyRegion(lower string, vocab *config.Vocabulary) (config.RegionEntry, bool) {
	aliases := make([]string, 0, len(vocab.Regions)*2)
	owners := make([]int, 0, len(vocab.Regions)*2)
	for i, r := range vocab.Regions {
		aliases = append(aliases, strings.ToLower(r.Name))
		owners = append(owners, i)
		for _, a := range r.Aliases {
			aliases = append(aliases, strings.ToLower(a))
			owners = append(owners, i)
		}
	}

	words := wordPattern.FindAllString(lower, -1)
	best := -1
	bestScore := 0
	for size := 2; size <= 3; size++ {
		for i := 0; i+size <= len(words); i++ {
			window := strings.Join(words[i:i+size], " ")
			if len(window) < minFuzzyLen {
				continue
			}
			for _, m := range fuzzy.Find(window, aliases) {
				// The window must cover nearly the whole alias, or two-word
				// fragments match every multi-word region.
				if len(window) < len(m.Str)-2 {
					continue
				}
				if m.Score > bestScore {
					bestScore = m.Score
					best = owners[m.Index]
				}
			}
		}
	}
	if best < 0 {
		return config.RegionEntry{}, false
	}
	return vocab.Regions[best], true
}

// parseCoordinates reads a "15-20°N, 60-65°E" style box. South and west
// ranges negate their values.
func parseCoordinates(lower string) (types.BoundingBox, bool) {
	m := coordPattern.FindStringSubmatch(lower)
	if m == nil {
		return types.BoundingBox{}, false
	}
	lat1, _ := strconv.ParseFloat(m[1], 64)
	lat2, _ := strconv.ParseFloat(m[2], 64)
	lon1, _ := strconv.ParseFloat(m[4], 64)
	lon2, _ := strconv.ParseFloat(m[5], 64)
	if m[3] == "s" {
		lat1, lat2 = -lat1, -lat2
	}
	if m[6] == "w" {
		lon1, lon2 = -lon1, -lon2
	}
	return types.BoundingBox{
		MinLat: math.Min(lat1, lat2),
		MaxLat: math.Max(lat1, lat2),
		MinLon: math.Min(lon1, lon2),
		MaxLon: math.Max(lon1, lon2),
	}, true
}

func (p *Parser) parseTimeRange(lower string) (types.TimeRange, bool) {
	now := p.now().UTC()

	if m := relativePattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		var unit time.Duration
		switch m[2] {
		case "day":
			unit = 24 * time.Hour
		case "week":
			unit = 7 * 24 * time.Hour
		case "month":
			unit = 30 * 24 * time.Hour
		case "year":
			unit = 365 * 24 * time.Hour
		}
		return types.TimeRange{Start: now.Add(-time.Duration(n) * unit), End: now}, true
	}

	if m := monthYearPattern.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[2])
		start := time.Date(year, monthsByName[m[1]], 1, 0, 0, 0, 0, time.UTC)
		return types.TimeRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}, true
	}

	if m := yearPattern.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return types.TimeRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Second)}, true
	}

	if strings.Contains(lower, "recent") {
		return types.TimeRange{Start: now.Add(-30 * 24 * time.Hour), End: now}, true
	}

	return types.TimeRange{}, false
}

func parseDepth(lower string) (types.DepthRange, bool) {
	m := depthPattern.FindStringSubmatch(lower)
	if m == nil {
		return types.DepthRange{}, false
	}
	min, _ := strconv.ParseFloat(m[1], 64)
	max, _ := strconv.ParseFloat(m[2], 64)
	if min > max {
		min, max = max, min
	}
	return types.DepthRange{Min: min, Max: max}, true
}

// parseParameters resolves query words to measurement columns, preserving
// first-mention order.
func parseParameters(lower string, vocab *config.Vocabulary) []string {
	var params []string
	seen := map[string]bool{}
	for _, word := range wordPattern.FindAllString(lower, -1) {
		entry, ok := vocab.ParameterForWord(word)
		if !ok || seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true
		params = append(params, entry.Name)
	}
	return params
}

func demandedAgents(lower string) types.AgentMask {
	var mask types.AgentMask
	for _, family := range agentFamilies {
		for _, word := range family.words {
			if strings.Contains(lower, word) {
				mask = mask.With(family.kind)
				break
			}
		}
	}
	if mask.IsEmpty() {
		return types.MaskOf(types.AgentMeasurement, types.AgentMetadata, types.AgentSemantic)
	}
	return mask
}
