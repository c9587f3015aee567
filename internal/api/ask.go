package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/insightgate/insightgate/internal/auth"
	"github.com/insightgate/insightgate/internal/warehouse"
)

type askRequest struct {
	Question string `json:"question"`
	Tenant   string `json:"tenant,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ask == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ASK_UNAVAILABLE", "question answering is not configured", false, nil)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if req.Question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", false, nil)
		return
	}

	tenant := req.Tenant
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		tenant = identity.Tenant
	}

	answer, err := deps.Ask.Ask(r.Context(), req.Question, tenant)
	if err != nil {
		writeExecError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// writeExecError maps pipeline failures onto the error envelope. Executor
// error kinds drive the status code and the retryable flag.
func writeExecError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	var execErr *warehouse.ExecError
	if errors.As(err, &execErr) {
		switch execErr.Kind {
		case warehouse.ErrKindTimeout:
			writeError(r.Context(), w, http.StatusGatewayTimeout, "QUERY_TIMEOUT", "the query took too long and was cancelled", true, nil)
			return
		case warehouse.ErrKindUnavailable:
			writeError(r.Context(), w, http.StatusServiceUnavailable, "WAREHOUSE_UNAVAILABLE", "the data source is unavailable", true, nil)
			return
		case warehouse.ErrKindRejected:
			writeError(r.Context(), w, http.StatusUnprocessableEntity, "QUERY_REJECTED", "the query was refused by the execution guard", false, nil)
			return
		default:
			writeError(r.Context(), w, http.StatusBadGateway, "QUERY_FAILED", "the query failed to execute", false, nil)
			return
		}
	}
	if deps.Logger != nil {
		deps.Logger.ErrorContext(r.Context(), "request failed", "error", err)
	}
	writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "internal error", false, nil)
}
