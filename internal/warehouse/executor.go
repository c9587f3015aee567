package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/insightgate/insightgate/internal/audit"
	"github.com/insightgate/insightgate/internal/observability"
	"github.com/insightgate/insightgate/internal/sqlguard"
)

const DefaultExecTimeout = 30 * time.Second

// Executor runs statements that have already passed full validation. It
// re-runs the string-level checks at its own boundary, bounds execution time,
// and writes an audit record for every attempt regardless of outcome.
type Executor struct {
	db       *sql.DB
	recorder *audit.Recorder
	timeout  time.Duration
	logger   *slog.Logger
}

func NewExecutor(db *sql.DB, recorder *audit.Recorder, timeout time.Duration, logger *slog.Logger) (*Executor, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, recorder: recorder, timeout: timeout, logger: logger}, nil
}

func (e *Executor) Execute(ctx context.Context, request Request) (QueryResult, error) {
	start := time.Now()

	if rejection := sqlguard.FastCheck(request.SQL); rejection != nil {
		elapsed := time.Since(start)
		e.audit(ctx, request, ErrKindRejected, rejection.Code, 0, elapsed, rejection)
		observability.ObserveQuery(ErrKindRejected, 0, elapsed)
		return QueryResult{}, &ExecError{Kind: ErrKindRejected, Err: rejection}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(execCtx, request.SQL, request.Args...)
	if err != nil {
		return QueryResult{}, e.fail(ctx, request, err, start)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, e.fail(ctx, request, err, start)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return QueryResult{}, e.fail(ctx, request, err, start)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, e.fail(ctx, request, err, start)
	}

	elapsed := time.Since(start)
	e.audit(ctx, request, "ok", "", len(resultRows), elapsed, nil)
	observability.ObserveQuery("ok", len(resultRows), elapsed)

	return QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		SQL:      request.SQL,
		Duration: elapsed,
	}, nil
}

func (e *Executor) fail(ctx context.Context, request Request, err error, start time.Time) error {
	elapsed := time.Since(start)
	kind := classify(err)
	e.audit(ctx, request, kind, "", 0, elapsed, err)
	observability.ObserveQuery(kind, 0, elapsed)
	e.logger.WarnContext(ctx, "warehouse query failed",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("kind", kind),
		slog.Any("error", err),
	)
	return &ExecError{Kind: kind, Err: err}
}

func (e *Executor) audit(ctx context.Context, request Request, outcome, reason string, rowCount int, elapsed time.Duration, err error) {
	record := audit.Record{
		Tenant:     request.Tenant,
		Question:   request.Question,
		SQL:        request.SQL,
		Outcome:    outcome,
		Reason:     reason,
		RowCount:   rowCount,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	e.recorder.Record(ctx, record)
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.Canceled) {
		return ErrKindUnavailable
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "connection refused") || strings.Contains(message, "bad connection") {
		return ErrKindUnavailable
	}
	return ErrKindExecution
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case time.Time:
			normalized[i] = typed.UTC().Format(time.RFC3339)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
