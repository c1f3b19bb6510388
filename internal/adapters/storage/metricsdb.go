package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *MetricsDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Compile-time check that *sql.DB satisfies SQLDB.
var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

var slowQueryMs int64
var slowQueryOnce sync.Once

// getSlowQueryThreshold returns the slow-query threshold in milliseconds.
func getSlowQueryThreshold() float64 {
	slowQueryOnce.Do(func() {
		ms := DefaultSlowQueryMs
		if v := os.Getenv("ATELIER_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowQueryMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowQueryMs))
}

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "atelier_db_query_duration_seconds",
	Help:    "Duration of content database queries.",
	Buckets: prometheus.DefBuckets,
}, []string{"op"})

// MetricsDB wraps a *sql.DB to record query durations and log slow queries.
// Satisfies the SQLDB interface so it can be passed to any store constructor.
type MetricsDB struct {
	db        *sql.DB
	threshold float64
}

// Compile-time check that *MetricsDB satisfies SQLDB.
var _ SQLDB = (*MetricsDB)(nil)

// NewMetricsDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a MetricsDB that records durations and logs slow queries
func NewMetricsDB(db *sql.DB) *MetricsDB {
	return &MetricsDB{
		db:        db,
		threshold: getSlowQueryThreshold(),
	}
}

// RawDB returns the underlying *sql.DB (needed for migrations and pool config).
func (m *MetricsDB) RawDB() *sql.DB { return m.db }

func (m *MetricsDB) observe(op, query string, start time.Time) {
	elapsed := time.Since(start)
	queryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if ms := float64(elapsed.Milliseconds()); ms >= m.threshold {
		slog.Warn("slow_query", "op", op, "query", query, "ms", ms)
	}
}

// ExecContext implements SQLDB.
func (m *MetricsDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer m.observe("exec", query, time.Now())
	return m.db.ExecContext(ctx, query, args...)
}

// QueryContext implements SQLDB.
func (m *MetricsDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer m.observe("query", query, time.Now())
	return m.db.QueryContext(ctx, query, args...)
}

// QueryRowContext implements SQLDB.
func (m *MetricsDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer m.observe("query_row", query, time.Now())
	return m.db.QueryRowContext(ctx, query, args...)
}

// BeginTx implements SQLDB.
func (m *MetricsDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return m.db.BeginTx(ctx, opts)
}
