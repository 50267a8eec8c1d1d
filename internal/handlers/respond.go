package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"x-proxy/internal/xapi"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "err", err)
	}
}

func writeExport(w http.ResponseWriter, exp *xapi.Export) {
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

// upstreamErrorPayload mirrors a completed upstream failure back to the
// caller, rate-limit summary included.
func upstreamErrorPayload(e *xapi.UpstreamError) map[string]any {
	return map[string]any{
		"error":      "x_api_error",
		"status":     e.Status,
		"body":       e.Body,
		"rate_limit": e.RateLimit,
	}
}

// writeBadGateway maps transport failures reaching upstream to a single
// bad-gateway response, distinct from upstream-reported statuses.
func writeBadGateway(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"error":  "http_error",
		"detail": err.Error(),
	})
}
