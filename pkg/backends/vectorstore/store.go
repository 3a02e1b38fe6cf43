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
// Package vectorstore queries the Pinecone index of Argo profile
// embeddings. Vector IDs follow "<platform_number>_<RFC3339 time>" and
// metadata carries platform_number, time (RFC3339), time_unix, region, and
// parameters fields.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// profileScanLimit bounds how many of a float's own profiles one
// SimilarProfiles call walks.
const profileScanLimit = 50

// Store executes similarity queries against the profile embedding index.
type Store struct {
	client    *pinecone.Client
	index     string
	namespace string
	dimension int
	logger    *zap.Logger

	mu   sync.Mutex
	conn *pinecone.IndexConnection
}

// New builds a store for the configured index. The index connection is
// established on first use.
func New(cfg config.VectorConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	return &Store{
		client:    client,
		index:     cfg.Index,
		namespace: cfg.Namespace,
		dimension: cfg.Dimension,
		logger:    logger,
	}, nil
}

// Ping verifies the index exists and matches the configured dimension.
func (s *Store) Ping(ctx context.Context) error {
	idx, err := s.client.DescribeIndex(ctx, s.index)
	if err != nil {
		return types.WrapError(types.KindBackendUnavailable, err, "vector index unreachable")
	}
	if s.dimension > 0 && int(idx.Dimension) != s.dimension {
		s.logger.Warn("vector index dimension differs from configuration",
			zap.String("index", s.index),
			zap.Int32("index_dimension", idx.Dimension),
			zap.Int("configured_dimension", s.dimension))
	}
	return nil
}

// Close releases the index connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Query returns up to topK hits for the given embedding, dropping matches
// below minScore.
func (s *Store) Query(ctx context.Context, vector []float32, topK int, filters types.SemanticFilters, minScore float64) ([]types.SemanticHit, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}

	res, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		MetadataFilter:  filter,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return hitsFromMatches(res.Matches, minScore, ""), nil
}

// Nearest returns the profiles most similar to one existing measurement,
// excluding the measurement itself.
func (s *Store) Nearest(ctx context.Context, platformNumber string, t time.Time, topK int, minScore float64) ([]types.SemanticHit, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	id := VectorID(platformNumber, t)
	fetched, err := conn.FetchVectors(ctx, []string{id})
	if err != nil {
		return nil, s.classify(err)
	}
	vec, ok := fetched.Vectors[id]
	if !ok || vec == nil || len(vec.Values) == 0 {
		return nil, types.Errorf(types.KindInvalidInput,
			"no profile vector for float %s at %s", platformNumber, t.UTC().Format(time.RFC3339))
	}

	res, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vec.Values,
		TopK:            uint32(topK + 1),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return hitsFromMatches(res.Matches, minScore, id), nil
}

// SimilarProfiles finds, for each profile of one float, the most similar
// profiles from other floats. Results are keyed by the profile's RFC3339
// timestamp.
func (s *Store) SimilarProfiles(ctx context.Context, platformNumber string, tr *types.TimeRange, topK int, minScore float64) (map[string][]types.SemanticHit, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := buildFilter(types.SemanticFilters{TimeRange: tr})
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &pinecone.MetadataFilter{Fields: map[string]*structpb.Value{}}
	}
	filter.Fields["platform_number"] = structpb.NewStringValue(platformNumber)

	zero := make([]float32, s.dimension)
	own, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          zero,
		TopK:            profileScanLimit,
		MetadataFilter:  filter,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		return nil, s.classify(err)
	}

	profiles := make(map[string][]types.SemanticHit)
	for _, m := range own.Matches {
		if m == nil || m.Vector == nil || len(m.Vector.Values) == 0 {
			continue
		}
		anchor := hitFromVector(m.Vector, float64(m.Score))
		if anchor.Time.IsZero() {
			continue
		}

		similar, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
			Vector:          m.Vector.Values,
			TopK:            uint32(topK + 1),
			IncludeMetadata: true,
		})
		if err != nil {
			return nil, s.classify(err)
		}

		hits := hitsFromMatches(similar.Matches, minScore, m.Vector.Id)
		if len(hits) > 0 {
			profiles[anchor.Time.UTC().Format(time.RFC3339)] = hits
		}
	}
	return profiles, nil
}

// connect lazily resolves the index host and opens the data-plane
// connection.
func (s *Store) connect(ctx context.Context) (*pinecone.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}

	idx, err := s.client.DescribeIndex(ctx, s.index)
	if err != nil {
		return nil, types.WrapError(types.KindBackendUnavailable, err, "vector index unreachable")
	}
	conn, err := s.client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: s.namespace})
	if err != nil {
		return nil, types.WrapError(types.KindBackendUnavailable, err, "vector index unreachable")
	}
	s.conn = conn
	return conn, nil
}

// classify wraps data-plane errors in the failure taxonomy.
func (s *Store) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.WrapError(types.KindBackendUnavailable, err, "vector index unreachable")
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"unavailable", "connection refused", "connection reset", "no such host", "i/o timeout"} {
		if strings.Contains(msg, marker) {
			return types.WrapError(types.KindBackendUnavailable, err, "vector index unreachable")
		}
	}
	return types.WrapError(types.KindBackendQuery, err, "vector query failed")
}

// VectorID is the canonical ID of one profile embedding.
func VectorID(platformNumber string, t time.Time) string {
	return platformNumber + "_" + t.UTC().Format(time.RFC3339)
}

// parseVectorID splits a canonical vector ID back into its parts.
func parseVectorID(id string) (string, time.Time, bool) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return "", time.Time{}, false
	}
	return parts[0], t, true
}

// buildFilter translates search filters into a Pinecone metadata filter.
// Returns nil when nothing is filtered.
func buildFilter(f types.SemanticFilters) (*pinecone.MetadataFilter, error) {
	conditions := map[string]any{}
	if f.Region != "" {
		conditions["region"] = map[string]any{"$eq": f.Region}
	}
	if f.TimeRange != nil && !f.TimeRange.IsZero() {
		conditions["time_unix"] = map[string]any{
			"$gte": f.TimeRange.Start.Unix(),
			"$lte": f.TimeRange.End.Unix(),
		}
	}
	if f.Parameter != "" {
		conditions["parameters"] = map[string]any{"$eq": f.Parameter}
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	filter, err := structpb.NewStruct(conditions)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidInput, err, "invalid semantic filters")
	}
	return filter, nil
}

// hitsFromMatches converts scored matches, dropping the skipID self-match
// and anything below minScore.
func hitsFromMatches(matches []*pinecone.ScoredVector, minScore float64, skipID string) []types.SemanticHit {
	hits := make([]types.SemanticHit, 0, len(matches))
	for _, m := range matches {
		if m == nil || m.Vector == nil {
			continue
		}
		if float64(m.Score) < minScore {
			continue
		}
		if skipID != "" && m.Vector.Id == skipID {
			continue
		}
		hits = append(hits, hitFromVector(m.Vector, float64(m.Score)))
	}
	return hits
}

// hitFromVector builds a hit from vector ID and metadata. The ID encodes
// platform number and time; metadata overrides when present.
func hitFromVector(v *pinecone.Vector, score float64) types.SemanticHit {
	hit := types.SemanticHit{Score: score, Metadata: map[string]any{}}
	if platform, t, ok := parseVectorID(v.Id); ok {
		hit.PlatformNumber = platform
		hit.Time = t
	}
	if v.Metadata == nil {
		return hit
	}
	for key, val := range v.Metadata.AsMap() {
		switch key {
		case "platform_number":
			if s, ok := val.(string); ok && s != "" {
				hit.PlatformNumber = s
			}
		case "time":
			if s, ok := val.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					hit.Time = t
				}
			}
		case "time_unix":
		default:
			hit.Metadata[key] = val
		}
	}
	return hit
}
