package http

import (
	"net/http"

	websitecmd "github.com/goliatone/go-cms-blog/internal/commands/website"
)

func (api *API) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := api.clearCache.Execute(r.Context(), websitecmd.ClearCacheCommand{}); err != nil {
		api.logger.Error("http.cache.clear_failed", "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invalidatePayload struct {
	Routes []string `json:"routes"`
}

func (api *API) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var payload invalidatePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid payload")
		return
	}
	err := api.invalidateRoutes.Execute(r.Context(), websitecmd.InvalidateRoutesCommand{Routes: payload.Routes})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
