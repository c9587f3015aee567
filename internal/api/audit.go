package api

import "net/http"

func handleAuditFlush(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archiver == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "audit archiving is not configured", false, nil)
		return
	}
	archived, err := deps.Archiver.Flush(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "ARCHIVE_FLUSH_FAILED", "audit flush failed", true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archived": archived})
}
