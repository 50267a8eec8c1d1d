package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"x-proxy/internal/xapi"
)

// User handles GET /api/user/{username}: profile lookup, optionally
// followed by the timeline fetch loop with its search fallback.
func (h Handler) User(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(strings.TrimSpace(chi.URLParam(r, "username")), "@")
	query := r.URL.Query()
	wantCSV := strings.EqualFold(query.Get("format"), "csv")
	withTweets := truthy(query.Get("with_tweets"))

	user, uerr, err := h.Service.LookupUser(r.Context(), username)
	if err != nil {
		writeBadGateway(w, err)
		return
	}
	if uerr != nil {
		writeJSON(w, uerr.Status, upstreamErrorPayload(uerr))
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "user_not_found", "username": username})
		return
	}

	uname := username
	if v, ok := user["username"].(string); ok && v != "" {
		uname = v
	}

	if !withTweets {
		if wantCSV {
			columns, rows := xapi.UserRow(user)
			h.writeCSV(w, columns, rows, "user_"+xapi.SafeFilenamePart(uname)+".csv")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
		return
	}

	res, err := h.Service.UserTimeline(r.Context(), user, xapi.TimelineOptions{
		Limit:   clampInt(query.Get("limit"), 5, 1, 100),
		Exclude: excludeParam(query),
		Pages:   clampInt(query.Get("pages"), 1, 1, 20),
		Cursor:  query.Get("next_token"),
	})
	if err != nil {
		writeBadGateway(w, err)
		return
	}

	if res.Err != nil && !(wantCSV && len(res.Rows) > 0) {
		key := "tweets_error"
		if res.UsedFallback {
			key = "tweets_fallback_error"
		}
		writeJSON(w, res.Err.Status, map[string]any{"user": user, key: res.Err})
		return
	}

	if wantCSV {
		name := "user_" + xapi.SafeFilenamePart(uname) + "_tweets.csv"
		if res.Err != nil {
			name = "user_" + xapi.SafeFilenamePart(uname) + "_partial.csv"
		}
		h.writeCSV(w, xapi.TweetColumns, res.Rows, name)
		return
	}

	last := any(res.LastPage)
	if res.LastPage == nil {
		last = map[string]any{"data": []any{}, "includes": map[string]any{}, "meta": map[string]any{}}
	}
	payload := map[string]any{"user": user}
	if res.UsedFallback {
		payload["tweets_fallback_search"] = last
	} else {
		payload["tweets"] = last
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h Handler) writeCSV(w http.ResponseWriter, columns []string, rows []xapi.Row, name string) {
	exp, err := xapi.CSVExport(columns, rows, name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "csv_error", "detail": err.Error()})
		return
	}
	writeExport(w, exp)
}
