package audit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/insightgate/insightgate/internal/observability"
	"github.com/insightgate/insightgate/internal/storage"
)

type parquetRecord struct {
	TimestampUnixMs int64  `parquet:"timestamp_unix_ms"`
	TraceID         string `parquet:"trace_id"`
	Tenant          string `parquet:"tenant"`
	Question        string `parquet:"question"`
	SQL             string `parquet:"sql"`
	Outcome         string `parquet:"outcome"`
	Reason          string `parquet:"reason"`
	RowCount        int32  `parquet:"row_count"`
	DurationMs      int64  `parquet:"duration_ms"`
	Error           string `parquet:"error"`
}

// Archiver periodically drains the recorder and writes the records as a
// Parquet object. Object keys are time-partitioned so downstream engines can
// prune scans by day.
type Archiver struct {
	recorder *Recorder
	store    storage.ObjectStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewArchiver(recorder *Recorder, store storage.ObjectStore, interval time.Duration, logger *slog.Logger) (*Archiver, error) {
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		recorder: recorder,
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run flushes on a fixed interval until the context is cancelled, then makes
// a final best-effort flush.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := a.Flush(flushCtx); err != nil {
				a.logger.Warn("final audit flush failed", slog.Any("error", err))
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := a.Flush(ctx); err != nil {
				a.logger.Warn("audit flush failed", slog.Any("error", err))
			}
		}
	}
}

// Flush writes all buffered records to object storage and returns how many it
// archived. Records are requeued on failure.
func (a *Archiver) Flush(ctx context.Context) (int, error) {
	records := a.recorder.Drain()
	if len(records) == 0 {
		observability.ObserveArchiveFlush("empty")
		return 0, nil
	}

	data, err := encodeParquet(records)
	if err != nil {
		a.recorder.Requeue(records)
		observability.ObserveArchiveFlush("error")
		return 0, err
	}

	key := a.objectKey()
	_, err = a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		a.recorder.Requeue(records)
		observability.ObserveArchiveFlush("error")
		return 0, fmt.Errorf("archive audit records: %w", err)
	}

	observability.ObserveArchiveFlush("ok")
	a.logger.Info("audit records archived",
		slog.String("key", key),
		slog.Int("records", len(records)),
		slog.Int("bytes", len(data)),
	)
	return len(records), nil
}

func (a *Archiver) objectKey() string {
	now := a.now().UTC()
	return fmt.Sprintf("audit/%s/records-%d.parquet", now.Format("2006/01/02"), now.UnixNano())
}

func encodeParquet(records []Record) ([]byte, error) {
	rows := make([]parquetRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, parquetRecord{
			TimestampUnixMs: record.Timestamp.UnixMilli(),
			TraceID:         record.TraceID,
			Tenant:          record.Tenant,
			Question:        record.Question,
			SQL:             record.SQL,
			Outcome:         record.Outcome,
			Reason:          record.Reason,
			RowCount:        int32(record.RowCount),
			DurationMs:      record.DurationMS,
			Error:           record.Error,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetRecord](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
