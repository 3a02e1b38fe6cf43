// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package agents implements the three specialist retrieval agents and the
// coordinator that fuses their outputs. Agents translate one intent into
// backend calls; they never call each other and never retry, since
// refinement belongs to the orchestrator.
package agents

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/teradata-labs/argonaut/pkg/types"
)

// Result is the uniform envelope every agent returns. Either Payload and
// Summary are set, or Err is.
type Result struct {
	Agent    types.AgentKind `json:"agent"`
	Payload  map[string]any  `json:"payload,omitempty"`
	Summary  string          `json:"summary,omitempty"`
	RowCount int             `json:"row_count"`
	Err      *types.Error    `json:"error,omitempty"`
	Duration time.Duration   `json:"-"`
}

// Errored reports whether the agent failed.
func (r Result) Errored() bool {
	return r.Err != nil
}

// ErrorResult wraps a failure in a result envelope.
func ErrorResult(agent types.AgentKind, err error, elapsed time.Duration) Result {
	return Result{
		Agent:    agent,
		Err:      typedError(err),
		Duration: elapsed,
	}
}

// typedError coerces any error into the failure taxonomy.
func typedError(err error) *types.Error {
	var te *types.Error
	if errors.As(err, &te) {
		return te
	}
	return types.WrapError(types.KindInternal, err, "agent failure")
}

// structToMap flattens a struct through its JSON tags.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// rowsToMaps converts measurements to generic rows keyed by their wire
// field names.
func rowsToMaps(rows []types.Measurement) []map[string]any {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil
	}
	var maps []map[string]any
	if err := json.Unmarshal(raw, &maps); err != nil {
		return nil
	}
	return maps
}
