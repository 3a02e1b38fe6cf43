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
// Package graphstore queries the Neo4j float metadata graph. The graph holds
// Float, Region, and Parameter nodes joined by LOCATED_IN, MEASURES, and
// PART_OF relationships.
package graphstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// writeClause matches Cypher clauses that mutate the graph. The planner only
// ever produces reads; anything else is rejected before it reaches the
// driver.
var writeClause = regexp.MustCompile(`(?i)\b(create|merge|delete|detach|set|remove|drop)\b`)

// Store executes read queries against the metadata graph.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// New connects to the metadata graph. The connection is verified lazily;
// call Ping to fail fast.
func New(cfg config.GraphConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	return &Store{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// Ping verifies the graph is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return types.WrapError(types.KindBackendUnavailable, err, "metadata graph unreachable")
	}
	return nil
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// FloatMetadata returns metadata for one float, or nil when the graph does
// not know the platform number.
func (s *Store) FloatMetadata(ctx context.Context, platformNumber string) (*types.FloatMetadata, error) {
	const query = `MATCH (f:Float {platform_number: $platform_number})
MATCH (f)-[:LOCATED_IN]->(r:Region)
MATCH (f)-[:MEASURES]->(p:Parameter)
RETURN f.platform_number AS platform_number,
       r.name AS subregion,
       collect(p.name) AS parameters`

	records, err := s.read(ctx, query, map[string]any{"platform_number": platformNumber})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	return &types.FloatMetadata{
		PlatformNumber: asString(records[0]["platform_number"]),
		Region:         asString(records[0]["subregion"]),
		Parameters:     asStringSlice(records[0]["parameters"]),
	}, nil
}

// RegionMetadata returns metadata for one region, or nil when unknown.
func (s *Store) RegionMetadata(ctx context.Context, regionName string) (*types.RegionMetadata, error) {
	const query = `MATCH (r:Region {name: $region_name})
OPTIONAL MATCH (r)-[:PART_OF]->(parent:Region)
OPTIONAL MATCH (sub:Region)-[:PART_OF]->(r)
OPTIONAL MATCH (f:Float)-[:LOCATED_IN]->(r)
RETURN r.name AS name,
       parent.name AS parent_region,
       count(DISTINCT f) AS float_count,
       collect(DISTINCT sub.name) AS subregions`

	records, err := s.read(ctx, query, map[string]any{"region_name": regionName})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	return regionMetadataFromRecord(records[0]), nil
}

// FloatsInRegion returns the platform numbers located in a region,
// optionally including every subregion below it.
func (s *Store) FloatsInRegion(ctx context.Context, regionName string, includeSubregions bool) ([]string, error) {
	query := `MATCH (f:Float)-[:LOCATED_IN]->(r:Region {name: $region_name})
RETURN f.platform_number AS platform_number`
	if includeSubregions {
		query = `MATCH (r:Region {name: $region_name})
OPTIONAL MATCH (sub:Region)-[:PART_OF*]->(r)
WITH collect(DISTINCT sub) + [r] AS regions
UNWIND regions AS region
MATCH (f:Float)-[:LOCATED_IN]->(region)
RETURN DISTINCT f.platform_number AS platform_number`
	}

	records, err := s.read(ctx, query, map[string]any{"region_name": regionName})
	if err != nil {
		return nil, err
	}

	floats := make([]string, 0, len(records))
	for _, rec := range records {
		floats = append(floats, asString(rec["platform_number"]))
	}
	return floats, nil
}

// RegionHierarchy returns the region tree keyed by root region name.
func (s *Store) RegionHierarchy(ctx context.Context) (map[string]*types.RegionNode, error) {
	const query = `MATCH (r:Region)
OPTIONAL MATCH (r)-[:PART_OF]->(parent:Region)
OPTIONAL MATCH (f:Float)-[:LOCATED_IN]->(r)
RETURN r.name AS region,
       parent.name AS parent,
       count(DISTINCT f) AS float_count`

	records, err := s.read(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return buildHierarchy(records), nil
}

// buildHierarchy nests regions under their parents and returns the roots.
func buildHierarchy(records []map[string]any) map[string]*types.RegionNode {
	nodes := make(map[string]*types.RegionNode)
	ensure := func(name string) *types.RegionNode {
		if n, ok := nodes[name]; ok {
			return n
		}
		n := &types.RegionNode{Name: name, Children: make(map[string]*types.RegionNode)}
		nodes[name] = n
		return n
	}

	for _, rec := range records {
		node := ensure(asString(rec["region"]))
		node.FloatCount = asInt(rec["float_count"])
	}

	isChild := make(map[string]bool)
	for _, rec := range records {
		region := asString(rec["region"])
		parent := asString(rec["parent"])
		if parent == "" {
			continue
		}
		ensure(parent).Children[region] = nodes[region]
		isChild[region] = true
	}

	roots := make(map[string]*types.RegionNode)
	for name, node := range nodes {
		if !isChild[name] {
			roots[name] = node
		}
	}
	return roots
}

// ParameterCoverage maps parameter names to the number of floats measuring
// them, optionally restricted to one region.
func (s *Store) ParameterCoverage(ctx context.Context, regionName string) (map[string]int, error) {
	query := `MATCH (p:Parameter)<-[:MEASURES]-(f:Float)`
	params := map[string]any{}
	if regionName != "" {
		query += `
MATCH (f)-[:LOCATED_IN]->(r:Region {name: $region_name})`
		params["region_name"] = regionName
	}
	query += `
RETURN p.name AS parameter,
       count(DISTINCT f) AS float_count`

	records, err := s.read(ctx, query, params)
	if err != nil {
		return nil, err
	}

	coverage := make(map[string]int, len(records))
	for _, rec := range records {
		coverage[asString(rec["parameter"])] = asInt(rec["float_count"])
	}
	return coverage, nil
}

// Execute runs a read-only Cypher query produced by the graph planner.
func (s *Store) Execute(ctx context.Context, cypher string) ([]map[string]any, error) {
	if err := validateReadOnly(cypher); err != nil {
		return nil, err
	}
	return s.read(ctx, cypher, nil)
}

// validateReadOnly rejects Cypher containing write clauses.
func validateReadOnly(cypher string) error {
	if m := writeClause.FindString(cypher); m != "" {
		return types.Errorf(types.KindInvalidInput, "write clause %q is not allowed", strings.ToUpper(m))
	}
	return nil
}

// read collects all records of one read transaction as maps.
func (s *Store) read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		maps := make([]map[string]any, len(records))
		for i, rec := range records {
			maps[i] = rec.AsMap()
		}
		return maps, nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return result.([]map[string]any), nil
}

// classify wraps driver errors in the failure taxonomy.
func (s *Store) classify(err error) error {
	if neo4j.IsNeo4jError(err) {
		return types.WrapError(types.KindBackendQuery, err, "graph query failed")
	}
	return types.WrapError(types.KindBackendUnavailable, err, "metadata graph unreachable")
}

func regionMetadataFromRecord(rec map[string]any) *types.RegionMetadata {
	return &types.RegionMetadata{
		Name:         asString(rec["name"]),
		ParentRegion: asString(rec["parent_region"]),
		FloatCount:   asInt(rec["float_count"]),
		Subregions:   asStringSlice(rec["subregions"]),
	}
}

// asString tolerates nil and non-string driver values.
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
