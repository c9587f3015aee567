// Package warehouse executes validated SELECT statements against the
// relational data source and accounts for every attempt in the audit trail.
package warehouse

import (
	"fmt"
	"time"
)

// Error kinds reported by the executor. Timeout and connection errors are
// retryable; execution and rejection errors are not.
const (
	ErrKindTimeout     = "timeout"
	ErrKindExecution   = "execution_failed"
	ErrKindUnavailable = "connection_unavailable"
	ErrKindRejected    = "rejected"
)

type ExecError struct {
	Kind string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func (e *ExecError) Retryable() bool {
	return e.Kind == ErrKindTimeout || e.Kind == ErrKindUnavailable
}

// Request is one statement to run. Question and Tenant are carried through to
// the audit record only.
type Request struct {
	SQL      string
	Args     []any
	Question string
	Tenant   string
}

type QueryResult struct {
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	RowCount int           `json:"row_count"`
	SQL      string        `json:"sql"`
	Duration time.Duration `json:"-"`
}
