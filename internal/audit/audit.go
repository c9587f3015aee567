// Package audit keeps a trail of every statement the executor was asked to
// run, accepted or not. Records are logged immediately and buffered for the
// optional Parquet archiver.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/insightgate/insightgate/internal/observability"
)

const DefaultBufferLimit = 10000

type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	TraceID    string    `json:"trace_id,omitempty"`
	Tenant     string    `json:"tenant,omitempty"`
	Question   string    `json:"question,omitempty"`
	SQL        string    `json:"sql"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	RowCount   int       `json:"row_count"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Recorder logs each record and buffers it for archiving. When the buffer is
// full the oldest records are dropped; the log line has already been emitted,
// so nothing is silently lost.
type Recorder struct {
	mu     sync.Mutex
	logger *slog.Logger
	buffer []Record
	limit  int
}

func NewRecorder(logger *slog.Logger, limit int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	return &Recorder{logger: logger, limit: limit}
}

func (r *Recorder) Record(ctx context.Context, record Record) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.TraceID == "" {
		record.TraceID = observability.TraceIDFromContext(ctx)
	}

	r.logger.InfoContext(ctx, "query_audit",
		slog.String("trace_id", record.TraceID),
		slog.String("tenant", record.Tenant),
		slog.String("outcome", record.Outcome),
		slog.String("reason", record.Reason),
		slog.Int("row_count", record.RowCount),
		slog.Int64("duration_ms", record.DurationMS),
		slog.String("sql", record.SQL),
	)
	observability.IncrementAuditRecords()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(r.buffer, record)
	if excess := len(r.buffer) - r.limit; excess > 0 {
		r.buffer = append(r.buffer[:0:0], r.buffer[excess:]...)
	}
}

// Drain returns the buffered records and resets the buffer.
func (r *Recorder) Drain() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.buffer
	r.buffer = nil
	return drained
}

func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Requeue puts records back at the front of the buffer after a failed flush.
func (r *Recorder) Requeue(records []Record) {
	if len(records) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(records, r.buffer...)
	if excess := len(r.buffer) - r.limit; excess > 0 {
		r.buffer = append(r.buffer[:0:0], r.buffer[excess:]...)
	}
}
