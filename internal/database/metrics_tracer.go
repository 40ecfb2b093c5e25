package database

import (
	"context"
	"strings"
	"time"

	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/jackc/pgx/v5"
)

// MetricsTracer implements pgx.QueryTracer, recording latency and errors per
// statement kind.
type MetricsTracer struct{}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

type traceKey struct{}

type traceStart struct {
	at   time.Time
	name string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), name: statementKind(data.SQL)})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}

	metrics.DBQueryDuration.WithLabelValues(start.name).Observe(time.Since(start.at).Seconds())
	if data.Err != nil {
		metrics.DBErrorsTotal.WithLabelValues(start.name).Inc()
	}
}

// statementKind keeps the metric label low-cardinality: the leading keyword
// (select, insert, update, ...) or "unknown".
func statementKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	kind := strings.ToLower(fields[0])
	if len(kind) > 20 {
		kind = kind[:20]
	}
	return kind
}
