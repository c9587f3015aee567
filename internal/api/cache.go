package api

import "net/http"

func handleCacheStats(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Cache == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "pattern cache is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, deps.Cache.Stats())
}

func handleCacheClear(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Cache == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "pattern cache is not configured", false, nil)
		return
	}
	deps.Cache.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
