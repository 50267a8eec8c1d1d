package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-proxy/internal/handlers"
	"x-proxy/internal/httpserver"
	"x-proxy/internal/xapi"
)

// newAPI wires the full router onto a scripted upstream.
func newAPI(t *testing.T, upstream http.Handler) http.Handler {
	t.Helper()
	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	svc := xapi.NewService(xapi.NewClient(xapi.ClientOptions{
		BaseURL:     ts.URL,
		BearerToken: "test-token",
	}))
	h := handlers.Handler{Service: svc, CacheTTL: time.Minute, APIBase: ts.URL}
	return httpserver.NewServer("0", h).Handler
}

func get(t *testing.T, api http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func pageJSON(prefix string, n int, next string) string {
	records := make([]string, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, fmt.Sprintf(`{"id":"%s-%d","text":"hello"}`, prefix, i))
	}
	meta := "{}"
	if next != "" {
		meta = fmt.Sprintf(`{"next_token":"%s"}`, next)
	}
	return fmt.Sprintf(`{"data":[%s],"includes":{},"meta":%s}`, strings.Join(records, ","), meta)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// upstream scripts the three upstream resources.
type upstream struct {
	mu            sync.Mutex
	profileStatus int
	profileBody   string
	timeline      func(call int) (int, string)
	search        func(call int) (int, string)

	timelineCalls int
	searchCalls   int
	searchQueries []string
	profilePaths  []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch {
	case strings.HasPrefix(r.URL.Path, "/users/by/username/"):
		u.profilePaths = append(u.profilePaths, r.URL.Path)
		writeJSON(w, u.profileStatus, u.profileBody)
	case strings.HasPrefix(r.URL.Path, "/users/") && strings.HasSuffix(r.URL.Path, "/tweets"):
		status, body := u.timeline(u.timelineCalls)
		u.timelineCalls++
		writeJSON(w, status, body)
	case r.URL.Path == "/tweets/search/recent":
		u.searchQueries = append(u.searchQueries, r.URL.Query().Get("query"))
		status, body := u.search(u.searchCalls)
		u.searchCalls++
		writeJSON(w, status, body)
	default:
		writeJSON(w, 404, `{"title":"no route"}`)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	api := newAPI(t, &upstream{})
	rec := get(t, api, "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing query param q")
}

func TestSearchEndToEndJSON(t *testing.T) {
	up := &upstream{
		search: func(call int) (int, string) {
			if call == 0 {
				return 200, pageJSON("p1", 5, "tok-2")
			}
			return 200, pageJSON("p2", 3, "")
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/search?q=cats&limit=10&pages=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["data"], 3, "raw mode returns the last fetched page")
	assert.Equal(t, 2, up.searchCalls)
	assert.Equal(t, "cats -is:retweets -is:replies", up.searchQueries[0], "default exclusions apply")
}

func TestSearchExplicitEmptyExcludeIncludesEverything(t *testing.T) {
	up := &upstream{
		search: func(call int) (int, string) { return 200, pageJSON("p1", 1, "") },
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/search?q=cats&exclude=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cats", up.searchQueries[0])
}

func TestSearchCSVPartialOnMidLoopError(t *testing.T) {
	up := &upstream{
		search: func(call int) (int, string) {
			if call == 0 {
				return 200, pageJSON("p1", 5, "tok-2")
			}
			return 500, `{"title":"boom"}`
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/search?q=cats&pages=3&format=csv")
	require.Equal(t, http.StatusOK, rec.Code, "partial rows beat the upstream error for tabular output")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "search_partial.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 6, "header plus the five rows from the successful page")
}

func TestSearchCSVZeroRowsHeaderOnly(t *testing.T) {
	up := &upstream{
		search: func(call int) (int, string) { return 200, pageJSON("p1", 0, "") },
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/search?q=nothing+matches&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "search_nothing_matches.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, strings.Join(xapi.TweetColumns, ","), lines[0])
}

func TestSearchUpstreamErrorJSON(t *testing.T) {
	up := &upstream{
		search: func(call int) (int, string) { return 429, `{"title":"Too Many Requests"}` },
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/search?q=cats")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "upstream status propagates when nothing was accumulated")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "x_api_error", body["error"])
	assert.Equal(t, float64(429), body["status"])
	assert.Contains(t, body, "rate_limit")
}

func TestSearchTransportErrorIsBadGateway(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // nothing listening anymore

	svc := xapi.NewService(xapi.NewClient(xapi.ClientOptions{BaseURL: ts.URL, BearerToken: "t"}))
	api := httpserver.NewServer("0", handlers.Handler{Service: svc}).Handler

	rec := get(t, api, "/api/search?q=cats")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_error")
}

const nasaProfile = `{"data":{"id":"u1","username":"nasa","name":"NASA","public_metrics":{"followers_count":1000}}}`

func TestUserNotFound(t *testing.T) {
	up := &upstream{profileStatus: 200, profileBody: `{}`}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_not_found")
}

func TestUserProfileJSONStripsLeadingAt(t *testing.T) {
	up := &upstream{profileStatus: 200, profileBody: nasaProfile}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/@nasa")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	user := body["user"].(map[string]any)
	assert.Equal(t, "nasa", user["username"])
	assert.Equal(t, []string{"/users/by/username/nasa"}, up.profilePaths)
}

func TestUserProfileCSV(t *testing.T) {
	up := &upstream{profileStatus: 200, profileBody: nasaProfile}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/nasa?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "user_nasa.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(xapi.UserColumns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "u1,nasa,NASA,"))
}

func TestUserTimelineFallbackChangesRawKey(t *testing.T) {
	up := &upstream{
		profileStatus: 200,
		profileBody:   nasaProfile,
		timeline: func(call int) (int, string) {
			return 429, `{"title":"Too Many Requests"}`
		},
		search: func(call int) (int, string) {
			return 200, pageJSON("fb", 2, "")
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/nasa?with_tweets=true&pages=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "tweets_fallback_search")
	assert.NotContains(t, body, "tweets")
	assert.Equal(t, "from:nasa -is:retweets -is:replies", up.searchQueries[0])
}

func TestUserTimelineJSONSuccess(t *testing.T) {
	up := &upstream{
		profileStatus: 200,
		profileBody:   nasaProfile,
		timeline: func(call int) (int, string) {
			return 200, pageJSON("tl", 3, "")
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/nasa?with_tweets=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	tweets := body["tweets"].(map[string]any)
	assert.Len(t, tweets["data"], 3)
}

func TestUserTimelinePartialCSV(t *testing.T) {
	up := &upstream{
		profileStatus: 200,
		profileBody:   nasaProfile,
		timeline: func(call int) (int, string) {
			if call == 0 {
				return 200, pageJSON("tl", 2, "tok-2")
			}
			return 500, `{"title":"boom"}`
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/nasa?with_tweets=true&pages=3&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "user_nasa_partial.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header plus the two rows fetched before the failure")
}

func TestUserTimelineErrorJSONCarriesStatus(t *testing.T) {
	up := &upstream{
		profileStatus: 200,
		profileBody:   nasaProfile,
		timeline: func(call int) (int, string) {
			return 500, `{"title":"boom"}`
		},
	}
	api := newAPI(t, up)

	rec := get(t, api, "/api/user/nasa?with_tweets=true")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "user")
	assert.Contains(t, body, "tweets_error")
}

func TestRootDescriptor(t *testing.T) {
	api := newAPI(t, &upstream{})
	rec := get(t, api, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(60), body["cache_ttl"])
}

func TestHealthz(t *testing.T) {
	api := newAPI(t, &upstream{})
	rec := get(t, api, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
