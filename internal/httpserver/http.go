package httpserver

import (
	"net/http"

	"x-proxy/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewServer creates the HTTP server with the service descriptor, health,
// and API endpoints.
func NewServer(port string, h handlers.Handler) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Get("/", h.Root)
	r.Get("/api/search", h.Search)
	r.Get("/api/user/{username}", h.User)

	return &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
}
