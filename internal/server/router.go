package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"mise/internal/handlers"
	applog "mise/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(context.Background(), "route registered", "path", "/healthz")
	mux.HandleFunc("/api/recipes/", handlers.RecipeResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/recipes/")
	mux.HandleFunc("/api/cost/", handlers.CostResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/cost/")
	mux.HandleFunc("/api/margin/", handlers.MarginResource)
	applog.Debug(context.Background(), "route registered", "path", "/api/margin/")
	return withRequestID(mux)
}

// withRequestID stamps every request with an X-Request-ID, minting one when
// the client did not send its own, so log lines tie back to a single call.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		applog.Debug(r.Context(), "request received",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r)
	})
}
