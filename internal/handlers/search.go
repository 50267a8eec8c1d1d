package handlers

import (
	"net/http"
	"strings"
	"time"

	"x-proxy/internal/xapi"
)

// Handler serves the public API endpoints on top of the core service.
type Handler struct {
	Service  *xapi.Service
	CacheTTL time.Duration
	APIBase  string
}

// Root describes the service.
func (h Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"service":   "x-proxy",
		"endpoints": []string{"/api/search", "/api/user/{username}", "/healthz"},
		"cache_ttl": int(h.CacheTTL.Seconds()),
		"api_base":  h.APIBase,
	})
}

// Search handles GET /api/search: one call fans out into up to `pages`
// upstream search requests and renders the merged result as JSON or a
// CSV attachment.
func (h Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing query param q"})
		return
	}

	wantCSV := strings.EqualFold(query.Get("format"), "csv")
	opts := xapi.SearchOptions{
		Query:  xapi.BuildSearchQuery(q, excludeParam(query)),
		Limit:  clampInt(query.Get("limit"), 10, 10, 100),
		Pages:  clampInt(query.Get("pages"), 1, 1, 20),
		Cursor: query.Get("next_token"),
	}

	res, err := h.Service.Search(r.Context(), opts)
	if err != nil {
		writeBadGateway(w, err)
		return
	}
	if res.Err != nil && !(wantCSV && len(res.Rows) > 0) {
		writeJSON(w, res.Err.Status, upstreamErrorPayload(res.Err))
		return
	}

	if wantCSV {
		name := "search_" + xapi.SafeFilenamePart(q) + ".csv"
		if res.Err != nil {
			name = "search_partial.csv"
		}
		exp, err := xapi.CSVExport(xapi.TweetColumns, res.Rows, name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "csv_error", "detail": err.Error()})
			return
		}
		writeExport(w, exp)
		return
	}
	writeJSON(w, http.StatusOK, res.LastPage)
}
