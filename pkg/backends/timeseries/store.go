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
// Package timeseries queries the argo_measurements SQL store. The primary
// deployment runs CockroachDB through the postgres driver; mysql and sqlite
// dialects are supported for smaller installations.
package timeseries

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/teradata-labs/argonaut/pkg/config"
	"github.com/teradata-labs/argonaut/pkg/types"
)

// DefaultLimit caps measurement rows when the caller does not.
const DefaultLimit = 1000

const measurementColumns = "platform_number, time, latitude, longitude, pres_adjusted, temp_adjusted, psal_adjusted"

// Granularity selects the time bucket for aggregates.
type Granularity string

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

// ProfileStats summarizes one parameter over a float's profile. Std is the
// population standard deviation.
type ProfileStats struct {
	Parameter string  `json:"parameter"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// statsParameters restricts ProfileStats to measured values.
var statsParameters = map[string]bool{
	"temp_adjusted": true,
	"psal_adjusted": true,
}

// aggregateParameters restricts Aggregate to numeric measurement columns.
var aggregateParameters = map[string]bool{
	"temp_adjusted": true,
	"psal_adjusted": true,
	"pres_adjusted": true,
}

// Store executes read queries against the measurement database.
type Store struct {
	db           *sql.DB
	dialect      string
	queryTimeout time.Duration
	logger       *zap.Logger
}

// New opens the measurement database for the configured dialect. The
// connection is verified lazily; call Ping to fail fast.
func New(cfg config.TimeseriesConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driverName, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Pooled connections would each get their own in-memory database
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetimeSeconds > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)
		}
	}

	queryTimeout := time.Duration(cfg.QueryTimeoutSeconds) * time.Second
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}

	return &Store{
		db:           db,
		dialect:      cfg.Driver,
		queryTimeout: queryTimeout,
		logger:       logger,
	}, nil
}

// buildDSN resolves the driver name and connection string for a dialect.
func buildDSN(cfg config.TimeseriesConfig) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN != "" {
			return "postgres", cfg.DSN, nil
		}
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:   cfg.Database,
		}
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else if cfg.User != "" {
			u.User = url.User(cfg.User)
		}
		q := u.Query()
		if cfg.SSLMode != "" {
			q.Set("sslmode", cfg.SSLMode)
		}
		u.RawQuery = q.Encode()
		return "postgres", u.String(), nil

	case "mysql":
		if cfg.DSN != "" {
			dsn = cfg.DSN
			if !strings.Contains(dsn, "parseTime") {
				if strings.Contains(dsn, "?") {
					dsn += "&parseTime=true"
				} else {
					dsn += "?parseTime=true"
				}
			}
			return "mysql", dsn, nil
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil

	case "sqlite":
		dsn = cfg.DSN
		if dsn == "" {
			dsn = cfg.Database
		}
		return "sqlite", dsn, nil

	default:
		return "", "", types.Errorf(types.KindInvalidInput, "unsupported timeseries driver: %s", cfg.Driver)
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return types.WrapError(types.KindBackendUnavailable, err, "measurement database unreachable")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ByFloat returns the most recent measurements for one platform number,
// newest first. A nil time range returns the full record.
func (s *Store) ByFloat(ctx context.Context, floatID string, tr *types.TimeRange, limit int) ([]types.Measurement, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := fmt.Sprintf(`SELECT %s
FROM argo_measurements
WHERE platform_number = $1`, measurementColumns)
	args := []any{floatID}

	if tr != nil && !tr.IsZero() {
		query += fmt.Sprintf(" AND time BETWEEN $%d AND $%d", len(args)+1, len(args)+2)
		args = append(args, tr.Start, tr.End)
	}
	query += fmt.Sprintf(" ORDER BY time DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return s.queryMeasurements(ctx, query, args...)
}

// ByRegion returns the most recent measurements inside a bounding box,
// newest first.
func (s *Store) ByRegion(ctx context.Context, b types.BoundingBox, tr *types.TimeRange, limit int) ([]types.Measurement, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := fmt.Sprintf(`SELECT %s
FROM argo_measurements
WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`, measurementColumns)
	args := []any{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon}

	if tr != nil && !tr.IsZero() {
		query += fmt.Sprintf(" AND time BETWEEN $%d AND $%d", len(args)+1, len(args)+2)
		args = append(args, tr.Start, tr.End)
	}
	query += fmt.Sprintf(" ORDER BY time DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	return s.queryMeasurements(ctx, query, args...)
}

// ProfileStats computes population statistics for one parameter of a float
// within a pressure window. A zero depth range defaults to 0-2000 dbar.
func (s *Store) ProfileStats(ctx context.Context, floatID, parameter string, depth types.DepthRange) (ProfileStats, error) {
	if !statsParameters[parameter] {
		return ProfileStats{}, types.Errorf(types.KindInvalidInput, "unsupported stats parameter: %s", parameter)
	}
	if depth.Min == 0 && depth.Max == 0 {
		depth.Max = 2000
	}

	// AVG(x*x) keeps the query portable; std derives from it below.
	query := fmt.Sprintf(`SELECT COUNT(*), AVG(%[1]s), AVG(%[1]s * %[1]s), MIN(%[1]s), MAX(%[1]s)
FROM argo_measurements
WHERE platform_number = $1 AND pres_adjusted BETWEEN $2 AND $3 AND %[1]s IS NOT NULL`, parameter)

	var (
		count                int
		mean, meanSq, mn, mx sql.NullFloat64
	)
	err := s.withRetry(ctx, "profile_stats", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, s.rebind(query), floatID, depth.Min, depth.Max)
		return row.Scan(&count, &mean, &meanSq, &mn, &mx)
	})
	if err != nil {
		return ProfileStats{}, s.classify(err, "profile stats query failed")
	}

	stats := ProfileStats{Parameter: parameter, Count: count}
	if count > 0 && mean.Valid {
		stats.Mean = mean.Float64
		stats.Std = math.Sqrt(math.Max(0, meanSq.Float64-mean.Float64*mean.Float64))
		stats.Min = mn.Float64
		stats.Max = mx.Float64
	}
	return stats, nil
}

// Aggregate buckets one parameter of a float by day, week, or month.
func (s *Store) Aggregate(ctx context.Context, floatID, parameter string, g Granularity) ([]types.AggregateBucket, error) {
	if !aggregateParameters[parameter] {
		return nil, types.Errorf(types.KindInvalidInput, "unsupported aggregate parameter: %s", parameter)
	}
	bucket, err := s.bucketExpr(g)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %[1]s AS bucket, AVG(%[2]s), AVG(%[2]s * %[2]s), COUNT(*)
FROM argo_measurements
WHERE platform_number = $1 AND %[2]s IS NOT NULL
GROUP BY bucket
ORDER BY bucket`, bucket, parameter)

	var out []types.AggregateBucket
	err = s.withRetry(ctx, "aggregate", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.rebind(query), floatID)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		out = out[:0]
		for rows.Next() {
			var (
				rawBucket    any
				mean, meanSq sql.NullFloat64
				count        int
			)
			if err := rows.Scan(&rawBucket, &mean, &meanSq, &count); err != nil {
				return err
			}
			b := types.AggregateBucket{Count: count}
			if t, ok := toTime(rawBucket); ok {
				b.Bucket = t
			}
			if mean.Valid {
				b.Mean = mean.Float64
				b.Std = math.Sqrt(math.Max(0, meanSq.Float64-mean.Float64*mean.Float64))
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.classify(err, "aggregate query failed")
	}
	return out, nil
}

// bucketExpr returns the dialect expression truncating time to the bucket.
func (s *Store) bucketExpr(g Granularity) (string, error) {
	switch s.dialect {
	case "postgres":
		switch g {
		case Daily, Weekly, Monthly:
			return fmt.Sprintf("date_trunc('%s', time)", g), nil
		}
	case "mysql":
		switch g {
		case Daily:
			return "DATE(time)", nil
		case Weekly:
			return "DATE_SUB(DATE(time), INTERVAL WEEKDAY(time) DAY)", nil
		case Monthly:
			return "DATE_FORMAT(time, '%Y-%m-01')", nil
		}
	case "sqlite":
		switch g {
		case Daily:
			return "strftime('%Y-%m-%d', time)", nil
		case Weekly:
			return "date(time, 'weekday 0', '-6 days')", nil
		case Monthly:
			return "strftime('%Y-%m-01', time)", nil
		}
	}
	return "", types.Errorf(types.KindInvalidInput, "unsupported aggregate granularity: %s", g)
}

// Execute runs a read-only query produced by the SQL planner and returns
// generic rows. Anything that is not a single SELECT is rejected.
func (s *Store) Execute(ctx context.Context, query string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, types.NewError(types.KindInvalidInput, "only SELECT queries are allowed")
	}
	if strings.Contains(trimmed, ";") {
		return nil, types.NewError(types.KindInvalidInput, "multiple statements are not allowed")
	}

	var out []map[string]any
	err := s.withRetry(ctx, "execute", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, trimmed)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}

		out = out[:0]
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			row := make(map[string]any, len(cols))
			for i, col := range cols {
				row[col] = normalizeValue(values[i])
			}
			out = append(out, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.classify(err, "query execution failed")
	}
	return out, nil
}

func (s *Store) queryMeasurements(ctx context.Context, query string, args ...any) ([]types.Measurement, error) {
	var out []types.Measurement
	err := s.withRetry(ctx, "measurements", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		out = out[:0]
		for rows.Next() {
			var (
				m               types.Measurement
				rawTime         any
				pres, temp, sal sql.NullFloat64
			)
			if err := rows.Scan(&m.PlatformNumber, &rawTime, &m.Latitude, &m.Longitude, &pres, &temp, &sal); err != nil {
				return err
			}
			if t, ok := toTime(rawTime); ok {
				m.Time = t
			}
			m.Pressure = nullToNaN(pres)
			m.Temperature = nullToNaN(temp)
			m.Salinity = nullToNaN(sal)
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.classify(err, "measurement query failed")
	}
	return out, nil
}

// rebind rewrites $N placeholders to ? for dialects that need it. Queries
// always use arguments in positional order, so the rewrite is a straight
// substitution.
func (s *Store) rebind(query string) string {
	if s.dialect == "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// withRetry runs an idempotent read with exponential backoff on transient
// connection failures. Query errors are permanent.
func (s *Store) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 10 * time.Second

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()

		err := fn(qctx)
		if err == nil {
			return nil
		}
		if isTransient(err) && ctx.Err() == nil {
			s.logger.Warn("Transient measurement query failure, retrying",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// isTransient reports whether the error looks like a connection failure
// rather than a query failure.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "broken pipe", "no such host", "i/o timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classify wraps a query error in the failure taxonomy.
func (s *Store) classify(err error, message string) error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	if isTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(types.KindBackendUnavailable, err, message)
	}
	return types.WrapError(types.KindBackendQuery, err, message)
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// toTime coerces the driver-specific bucket and time column representations.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	}
	return time.Time{}, false
}

func parseTimeString(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeValue converts driver byte slices to strings for JSON payloads.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
