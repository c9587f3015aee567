// Package sqlguard is the trust boundary between LLM-generated SQL and the
// warehouse. Candidate statements are treated as adversarial input: they are
// validated against a fixed rule set and the table allowlist before any
// execution, and rewritten to respect the configured row limit.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightgate/insightgate/internal/allowlist"
)

// Rejection reason codes. blocked_keyword and table_not_allowed carry the
// offending token after a colon, e.g. "blocked_keyword:DROP".
const (
	ReasonNotSelect          = "not_select"
	ReasonMultipleStatements = "multiple_statements"
	ReasonCommentDetected    = "comment_detected"
	ReasonBlockedKeyword     = "blocked_keyword"
	ReasonTableNotAllowed    = "table_not_allowed"
)

var (
	blockedKeywordPattern = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|TRUNCATE|ALTER|CREATE|GRANT|REVOKE|EXECUTE|EXEC)\b`)
	blockedIntoPattern    = regexp.MustCompile(`(?i)\bINTO\s+(OUTFILE|DUMPFILE)\b`)
	limitPattern          = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
)

// Rejection reports why a candidate statement was refused. Code is the
// machine-readable reason; Message is safe to show to end users and does not
// echo SQL or allowlist contents.
type Rejection struct {
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("sql rejected (%s)", r.Code)
}

type Result struct {
	Valid     bool
	SQL       string
	Tables    []string
	Rejection *Rejection
}

type Validator struct {
	registry *allowlist.Registry
}

func NewValidator(registry *allowlist.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate runs the full check sequence. Checks run in a fixed order and the
// first violation short-circuits, so exactly one reason is reported per call.
// Column-level allowlisting is intentionally not enforced; only table
// references are checked. A Valid result returns the input SQL unmodified --
// row limiting is EnforceLimit's job.
func (v *Validator) Validate(sqlText string) Result {
	if rejection := FastCheck(sqlText); rejection != nil {
		return Result{Rejection: rejection}
	}

	tables := ExtractTables(sqlText)
	resolved := make([]string, 0, len(tables))
	for _, table := range tables {
		canonical, ok := v.registry.Resolve(table)
		if !ok {
			return Result{Rejection: &Rejection{
				Code:    ReasonTableNotAllowed + ":" + strings.ToLower(table),
				Message: "I can only answer questions using the approved data tables.",
			}}
		}
		resolved = append(resolved, canonical)
	}

	return Result{Valid: true, SQL: sqlText, Tables: resolved}
}

// FastCheck runs the statement-shape, single-statement, comment, and blocked
// keyword checks. It is pure string inspection with no registry lookup, so the
// executor re-runs it at its own boundary as defense in depth.
func FastCheck(sqlText string) *Rejection {
	trimmed := strings.TrimSpace(sqlText)

	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return &Rejection{
			Code:    ReasonNotSelect,
			Message: "Only read-only SELECT queries can be run.",
		}
	}

	if idx := strings.Index(trimmed, ";"); idx >= 0 && idx != len(trimmed)-1 {
		return &Rejection{
			Code:    ReasonMultipleStatements,
			Message: "Only a single SQL statement can be run at a time.",
		}
	}

	if strings.Contains(trimmed, "--") || strings.Contains(trimmed, "/*") {
		return &Rejection{
			Code:    ReasonCommentDetected,
			Message: "SQL comments are not allowed in queries.",
		}
	}

	if match := blockedKeywordPattern.FindString(trimmed); match != "" {
		return &Rejection{
			Code:    ReasonBlockedKeyword + ":" + strings.ToUpper(match),
			Message: "The query uses a SQL feature that is not allowed.",
		}
	}
	if match := blockedIntoPattern.FindString(trimmed); match != "" {
		return &Rejection{
			Code:    ReasonBlockedKeyword + ":" + normalizeToken(match),
			Message: "The query uses a SQL feature that is not allowed.",
		}
	}

	return nil
}

func normalizeToken(match string) string {
	return strings.ToUpper(strings.Join(strings.Fields(match), " "))
}
