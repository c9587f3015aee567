package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/insightgate/insightgate/internal/allowlist"
	"github.com/insightgate/insightgate/internal/sqlguard"
	"github.com/insightgate/insightgate/internal/warehouse"
)

func queryDeps(executor QueryRunner) Dependencies {
	return Dependencies{
		Logger:    testLogger(),
		Executor:  executor,
		Validator: sqlguard.NewValidator(allowlist.Default()),
		MaxRows:   100,
	}
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestQueryExecutesValidatedSQL(t *testing.T) {
	executor := &fakeExecutor{result: warehouse.QueryResult{
		Columns:  []string{"error_count"},
		Rows:     [][]any{{int64(42)}},
		RowCount: 1,
	}}
	handler := NewHandler(testConfig(), queryDeps(executor))

	rr := postJSON(t, handler, "/v1/query", `{"sql":"SELECT COUNT(*) AS error_count FROM error_logs"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}

	var result warehouse.QueryResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.RowCount != 1 {
		t.Fatalf("row_count = %d", result.RowCount)
	}
	if !strings.Contains(executor.last.SQL, "LIMIT 100") {
		t.Fatalf("row limit not applied: %q", executor.last.SQL)
	}
}

func TestQueryRejectsUnsafeSQL(t *testing.T) {
	executor := &fakeExecutor{}
	handler := NewHandler(testConfig(), queryDeps(executor))

	rr := postJSON(t, handler, "/v1/query", `{"sql":"DROP TABLE error_logs"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error_code"] != "SQL_REJECTED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
	if executor.last.SQL != "" {
		t.Fatal("rejected SQL must not reach the executor")
	}
}

func TestQueryMapsExecutorTimeout(t *testing.T) {
	executor := &fakeExecutor{err: &warehouse.ExecError{Kind: warehouse.ErrKindTimeout, Err: errors.New("context deadline exceeded")}}
	handler := NewHandler(testConfig(), queryDeps(executor))

	rr := postJSON(t, handler, "/v1/query", `{"sql":"SELECT facility_id FROM error_logs"}`)
	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error_code"] != "QUERY_TIMEOUT" || body["retryable"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestValidateReportsBothOutcomes(t *testing.T) {
	handler := NewHandler(testConfig(), queryDeps(&fakeExecutor{}))

	rr := postJSON(t, handler, "/v1/validate", `{"sql":"SELECT facility_id FROM error_logs"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp validateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected valid, got rejection %q", resp.RejectionCode)
	}
	if len(resp.Tables) != 1 || resp.Tables[0] != "error_logs" {
		t.Fatalf("tables = %v", resp.Tables)
	}

	rr = postJSON(t, handler, "/v1/validate", `{"sql":"SELECT * FROM secrets"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Valid {
		t.Fatal("unknown table must be rejected")
	}
	if !strings.HasPrefix(resp.RejectionCode, "table_not_allowed") {
		t.Fatalf("rejection_code = %q", resp.RejectionCode)
	}
}

func TestQueryRequiresSQL(t *testing.T) {
	handler := NewHandler(testConfig(), queryDeps(&fakeExecutor{}))
	rr := postJSON(t, handler, "/v1/query", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}
