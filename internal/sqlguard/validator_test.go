package sqlguard

import (
	"strings"
	"testing"

	"github.com/insightgate/insightgate/internal/allowlist"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(allowlist.Default())
}

func TestValidateRejections(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name     string
		sql      string
		wantCode string
	}{
		{"insert statement", "INSERT INTO error_logs VALUES (1)", ReasonNotSelect},
		{"update statement", "UPDATE sessions SET shot_count = 0", ReasonNotSelect},
		{"empty string", "   ", ReasonNotSelect},
		{"with clause", "WITH t AS (SELECT 1) SELECT * FROM t", ReasonNotSelect},
		{"stacked statements", "SELECT * FROM connections; DROP TABLE connections;", ReasonMultipleStatements},
		{"semicolon mid statement", "SELECT 1; SELECT 2", ReasonMultipleStatements},
		{"line comment", "SELECT * FROM sessions -- hidden", ReasonCommentDetected},
		{"block comment", "SELECT /* smuggle */ * FROM sessions", ReasonCommentDetected},
		{"drop keyword", "SELECT * FROM sessions WHERE note = DROP", "blocked_keyword:DROP"},
		{"delete keyword", "SELECT delete FROM sessions", "blocked_keyword:DELETE"},
		{"exec keyword", "SELECT exec('x')", "blocked_keyword:EXEC"},
		{"into outfile", "SELECT * FROM sessions INTO OUTFILE '/tmp/x'", "blocked_keyword:INTO OUTFILE"},
		{"unknown table", "SELECT * FROM users", "table_not_allowed:users"},
		{"unknown join table", "SELECT * FROM sessions s JOIN accounts a ON s.facility_id = a.id", "table_not_allowed:accounts"},
		{"double quoted unknown table", `SELECT * FROM "users"`, "table_not_allowed:users"},
		{"backtick quoted unknown table", "SELECT * FROM `users`", "table_not_allowed:users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.sql)
			if result.Valid {
				t.Fatalf("Validate(%q) unexpectedly valid", tt.sql)
			}
			if result.Rejection.Code != tt.wantCode {
				t.Fatalf("reason = %q, want %q", result.Rejection.Code, tt.wantCode)
			}
			if result.Rejection.Message == "" {
				t.Fatal("rejection must carry a human message")
			}
		})
	}
}

func TestValidateDoesNotLeakTableNamesInMessage(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("SELECT * FROM secret_payroll")
	if result.Valid {
		t.Fatal("expected rejection")
	}
	if strings.Contains(result.Rejection.Message, "secret_payroll") {
		t.Fatalf("human message leaks table name: %q", result.Rejection.Message)
	}
}

func TestValidateAccepts(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		sql  string
	}{
		{"simple select", "SELECT facility_name FROM error_logs"},
		{"lowercase select", "select * from sessions"},
		{"trailing semicolon", "SELECT facility_id FROM sessions;"},
		{"alias reference", "SELECT facility_name, SUM(disconnection_cnt) AS total FROM connections GROUP BY facility_name ORDER BY total DESC LIMIT 5"},
		{"join over allowlisted tables", "SELECT e.message, f.location FROM error_logs e JOIN facility_metadata f ON e.facility_id = f.facility_id"},
		{"schema qualified", "SELECT * FROM analytics.sessions"},
		{"postgres interval falls back to regex extraction", "SELECT facility_name FROM connections WHERE date >= CURRENT_DATE - INTERVAL '7 days'"},
		{"double quoted allowlisted table", `SELECT * FROM "sessions"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.sql)
			if !result.Valid {
				t.Fatalf("Validate(%q) rejected: %v", tt.sql, result.Rejection.Code)
			}
			if result.SQL != tt.sql {
				t.Fatal("Validate must not modify the statement")
			}
		})
	}
}

func TestValidateResolvesAliasesToCanonicalTables(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("SELECT * FROM connections JOIN errors ON connections.facility_id = errors.facility_id")
	if !result.Valid {
		t.Fatalf("unexpected rejection: %v", result.Rejection.Code)
	}
	want := []string{"connectivity_logs", "error_logs"}
	if len(result.Tables) != len(want) {
		t.Fatalf("tables = %v, want %v", result.Tables, want)
	}
	for i, table := range want {
		if result.Tables[i] != table {
			t.Fatalf("tables = %v, want %v", result.Tables, want)
		}
	}
}

func TestCheckOrderReportsFirstViolation(t *testing.T) {
	v := newValidator(t)

	// Contains a comment, a blocked keyword, and an unknown table; the
	// semicolon check runs first.
	result := v.Validate("SELECT * FROM users; DROP TABLE users -- boom")
	if result.Rejection == nil || result.Rejection.Code != ReasonMultipleStatements {
		t.Fatalf("reason = %v, want %s", result.Rejection, ReasonMultipleStatements)
	}
}
