package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

type startTimeKey string

const (
	tracingStartKey startTimeKey = "db_tracing_start"
	metricsStartKey startTimeKey = "db_metrics_start"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include query variables in spans; never in production
	SlowQueryThresh time.Duration
	DBSystem        string // postgresql or sqlite
}

// RegisterDBTracing installs otelgorm on db and annotates its spans with
// rows affected, table and slow query markers.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQueryThreshold
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}

	after := func(string) func(*gorm.DB) {
		return func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }
	}
	if err := registerAround(db, "otel_annotate", markStart(tracingStartKey), after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slowQueryThresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if elapsed, ok := elapsedSince(ctx, tracingStartKey); ok && elapsed > slowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", slowQueryThresh.Milliseconds()),
		))
	}
}

// DBMetrics records query counts and durations and observes the connection pool.
type DBMetrics struct {
	queryTotal      *Counter
	queryDuration   *Histogram
	slowQueryTotal  *Counter
	slowQueryThresh time.Duration
	registration    metric.Registration
}

// NewDBMetrics creates the database instruments. Pool statistics of sqlDB are
// observed on every collection.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, slowQueryThresh time.Duration) (*DBMetrics, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewDBMetrics", Err: "meter cannot be nil"}
	}
	if slowQueryThresh <= 0 {
		slowQueryThresh = defaultSlowQueryThreshold
	}

	m := &DBMetrics{slowQueryThresh: slowQueryThresh}
	var err error
	if m.queryTotal, err = NewCounter(meter, "gcs_db_query_total", "Database queries executed", "{queries}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "gcs_db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "gcs_db_slow_query_total", "Queries slower than the threshold", "{queries}"); err != nil {
		return nil, err
	}

	if sqlDB != nil {
		pool, err := meter.Int64ObservableGauge("gcs_db_pool_connections",
			metric.WithDescription("Connections in the database pool, by state"),
			metric.WithUnit("{connections}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create pool gauge: %w", err)
		}
		m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			stats := sqlDB.Stats()
			o.ObserveInt64(pool, int64(stats.Idle), metric.WithAttributes(attribute.String("state", "idle")))
			o.ObserveInt64(pool, int64(stats.InUse), metric.WithAttributes(attribute.String("state", "in_use")))
			o.ObserveInt64(pool, int64(stats.MaxOpenConnections), metric.WithAttributes(attribute.String("state", "max")))
			return nil
		}, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to register pool callback: %w", err)
		}
	}

	return m, nil
}

// RecordQuery records one executed query
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	op := AttrDBOperation.String(operation)
	m.queryTotal.Inc(ctx, op)
	m.queryDuration.RecordDuration(ctx, d, op)

	if d > m.slowQueryThresh {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// Register installs the query callbacks on db
func (m *DBMetrics) Register(db *gorm.DB) error {
	record := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				return
			}
			elapsed, _ := elapsedSince(ctx, metricsStartKey)
			op := operation
			if op == "" {
				op = detectOperationType(tx.Statement.SQL.String())
			}
			m.RecordQuery(ctx, op, tx.Statement.Table, elapsed)
		}
	}

	return registerAround(db, "db_metrics", markStart(metricsStartKey), record)
}

// Stop unregisters the pool observer
func (m *DBMetrics) Stop() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

// registerAround registers before and after callbacks on every gorm operation.
// after receives the SQL verb of the operation, or "" for row and raw statements.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(operation string) func(*gorm.DB)) error {
	cb := db.Callback()
	registrations := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
		fn       func(*gorm.DB)
	}{
		{"before_create", cb.Create().Before("gorm:create").Register, before},
		{"before_query", cb.Query().Before("gorm:query").Register, before},
		{"before_update", cb.Update().Before("gorm:update").Register, before},
		{"before_delete", cb.Delete().Before("gorm:delete").Register, before},
		{"before_row", cb.Row().Before("gorm:row").Register, before},
		{"before_raw", cb.Raw().Before("gorm:raw").Register, before},
		{"after_create", cb.Create().After("gorm:create").Register, after("INSERT")},
		{"after_query", cb.Query().After("gorm:query").Register, after("SELECT")},
		{"after_update", cb.Update().After("gorm:update").Register, after("UPDATE")},
		{"after_delete", cb.Delete().After("gorm:delete").Register, after("DELETE")},
		{"after_row", cb.Row().After("gorm:row").Register, after("")},
		{"after_raw", cb.Raw().After("gorm:raw").Register, after("")},
	}
	for _, r := range registrations {
		name := prefix + ":" + r.name
		if err := r.register(name, r.fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}
	return nil
}

func markStart(key startTimeKey) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, key, time.Now())
		}
	}
}

func elapsedSince(ctx context.Context, key startTimeKey) (time.Duration, bool) {
	start, ok := ctx.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// detectOperationType reads the SQL verb of a raw statement
func detectOperationType(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, verb) {
			return verb
		}
	}
	return "OTHER"
}
