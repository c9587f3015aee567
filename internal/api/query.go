package api

import (
	"encoding/json"
	"net/http"

	"github.com/insightgate/insightgate/internal/auth"
	"github.com/insightgate/insightgate/internal/sqlguard"
	"github.com/insightgate/insightgate/internal/warehouse"
)

type queryRequest struct {
	SQL string `json:"sql"`
}

type validateResponse struct {
	Valid         bool     `json:"valid"`
	Tables        []string `json:"tables,omitempty"`
	RejectionCode string   `json:"rejection_code,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// handleQuery runs caller-supplied SQL through the same gate as generated
// SQL: full validation, row limiting, then the executor.
func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil || deps.Validator == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "QUERY_UNAVAILABLE", "query execution is not configured", false, nil)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if req.SQL == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "sql is required", false, nil)
		return
	}

	result := deps.Validator.Validate(req.SQL)
	if !result.Valid {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "SQL_REJECTED", result.Rejection.Message, false, map[string]any{
			"rejection_code": result.Rejection.Code,
		})
		return
	}

	var tenant string
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		tenant = identity.Tenant
	}

	limited := sqlguard.EnforceLimit(result.SQL, deps.MaxRows)
	queryResult, err := deps.Executor.Execute(r.Context(), warehouse.Request{SQL: limited, Tenant: tenant})
	if err != nil {
		writeExecError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResult)
}

// handleValidate checks a statement without executing it.
func handleValidate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Validator == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "VALIDATOR_UNAVAILABLE", "validation is not configured", false, nil)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if req.SQL == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "sql is required", false, nil)
		return
	}

	result := deps.Validator.Validate(req.SQL)
	if !result.Valid {
		writeJSON(w, http.StatusOK, validateResponse{
			Valid:         false,
			RejectionCode: result.Rejection.Code,
			Message:       result.Rejection.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Tables: result.Tables})
}
