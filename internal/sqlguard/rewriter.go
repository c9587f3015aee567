package sqlguard

import (
	"fmt"
	"strings"
)

// DefaultMaxRows caps result sizes when the caller does not configure one.
const DefaultMaxRows = 100

// EnforceLimit makes a validated statement obey the row cap. A statement that
// already carries a LIMIT clause is returned unchanged, so the rewrite is
// idempotent. Otherwise the single trailing semicolon (if any) is stripped
// and LIMIT is appended; the executor supplies statement termination.
// EnforceLimit performs no safety checking and must only be called on SQL
// that passed Validate.
func EnforceLimit(sqlText string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if limitPattern.MatchString(sqlText) {
		return sqlText
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(sqlText), ";")
	return fmt.Sprintf("%s LIMIT %d", strings.TrimSpace(trimmed), maxRows)
}
