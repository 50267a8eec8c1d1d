package logging

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/motemen/go-loghttp"
)

// Init sets up the process-wide slog logger. Debug turns on the debug
// level, which also makes the upstream HTTP trace transport chatty.
func Init(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Transport wraps base with debug-level request/response logging.
func Transport(base http.RoundTripper) http.RoundTripper {
	return &loghttp.Transport{
		Transport: base,
		LogRequest: func(req *http.Request) {
			slog.Debug("upstream request", "method", req.Method, "url", req.URL.String())
		},
		LogResponse: func(resp *http.Response) {
			slog.Debug("upstream response",
				"status", resp.StatusCode,
				"url", resp.Request.URL.String(),
				"rate_limit_remaining", resp.Header.Get("x-rate-limit-remaining"),
			)
		},
	}
}
