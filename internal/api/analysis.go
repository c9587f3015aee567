package api

import (
	"encoding/json"
	"net/http"

	"github.com/insightgate/insightgate/internal/analysis"
)

type analysisRequest struct {
	AnalysisType string          `json:"analysis_type"`
	Params       analysis.Params `json:"params"`
}

func handleAnalysisRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Analysis == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ANALYSIS_UNAVAILABLE", "analysis is not configured", false, nil)
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	if req.AnalysisType == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "analysis_type is required", false, nil)
		return
	}

	outcome, err := deps.Analysis.Run(r.Context(), analysis.Type(req.AnalysisType), req.Params)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ANALYSIS", err.Error(), false, nil)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
