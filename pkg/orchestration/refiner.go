// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// spatialExpandDeg is added to every edge of the bounding box per
	// expand_spatial refinement.
	spatialExpandDeg = 2.0
	// temporalWidenFrac extends the time range by half its span on each
	// side per expand_temporal refinement.
	temporalWidenFrac = 0.5
)

// Refiner applies analysis suggestions to produce the next cycle's intent.
// The input intent is never mutated.
type Refiner struct {
	logger *zap.Logger
}

func NewRefiner(logger *zap.Logger) *Refiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{logger: logger}
}

// Refine returns a deep copy of intent with the suggestions applied.
// Unknown suggestions are ignored.
func (r *Refiner) Refine(intent types.Intent, suggestions []Suggestion) types.Intent {
	next := intent.Clone()
	for _, s := range suggestions {
		switch s {
		case SuggestExpandSpatial:
			if next.Bounds != nil {
				expanded := next.Bounds.Expand(spatialExpandDeg)
				next.Bounds = &expanded
			}
		case SuggestExpandTemporal:
			if next.TimeRange != nil {
				widened := next.TimeRange.Widen(temporalWidenFrac)
				next.TimeRange = &widened
			}
		case SuggestBroadenSemantic:
			next.SemanticBroadened = true
		case SuggestEnhanceMetadata:
			next.MetadataEnhanced = true
		}
	}
	r.logger.Debug("Refined intent for next cycle",
		zap.Int("suggestions", len(suggestions)),
		zap.Bool("semantic_broadened", next.SemanticBroadened),
		zap.Bool("metadata_enhanced", next.MetadataEnhanced))
	return next
}
