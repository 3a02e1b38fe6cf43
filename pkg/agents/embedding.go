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
	"crypto/md5"
	"encoding/hex"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// EmbeddingDim is the dimensionality of the profile embedding index.
const EmbeddingDim = 384

// EmbedQuery derives a deterministic unit vector from the query text.
// Identical lowercased inputs produce bitwise identical vectors, so tests
// and refinement cycles reproduce search results without an embedding
// service.
func EmbedQuery(text string) []float32 {
	sum := md5.Sum([]byte(strings.ToLower(text)))
	seed, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
	rng := rand.New(rand.NewSource(int64(seed)))

	draws := make([]float64, EmbeddingDim)
	var norm float64
	for i := range draws {
		draws[i] = rng.NormFloat64() * 0.1
		norm += draws[i] * draws[i]
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, EmbeddingDim)
	if norm == 0 {
		for i := range draws {
			vec[i] = float32(draws[i])
		}
		return vec
	}
	for i := range draws {
		vec[i] = float32(draws[i] / norm)
	}
	return vec
}
