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
package agents

import (
	"math"
	"sort"

	"github.com/teradata-labs/argonaut/pkg/types"
)

// statParameters maps payload keys to measurement field accessors.
var statParameters = []struct {
	name  string
	value func(types.Measurement) float64
}{
	{"temp_adjusted", func(m types.Measurement) float64 { return m.Temperature }},
	{"psal_adjusted", func(m types.Measurement) float64 { return m.Salinity }},
	{"pres_adjusted", func(m types.Measurement) float64 { return m.Pressure }},
}

// computeStats derives per-parameter statistics over the returned rows,
// ignoring NaN values. Parameters with no valid values are omitted.
func computeStats(rows []types.Measurement) map[string]types.ParamStats {
	stats := make(map[string]types.ParamStats, len(statParameters))
	for _, param := range statParameters {
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v := param.value(row); !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		stats[param.name] = describe(values)
	}
	return stats
}

// describe computes mean, population standard deviation, min, max, and
// median of a non-empty sample.
func describe(values []float64) types.ParamStats {
	var sum, sumSq float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		sumSq += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	n := float64(len(values))
	mean := sum / n
	std := math.Sqrt(math.Max(0, sumSq/n-mean*mean))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return types.ParamStats{
		Mean:   mean,
		Std:    std,
		Min:    min,
		Max:    max,
		Median: median,
		Count:  len(values),
	}
}
