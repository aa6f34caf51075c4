// Package server exposes the rendered output tree over HTTP for local
// preview, together with a crosslink query endpoint and an SSE stream.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Resolver is the crosslink lookup consumed by the resolve endpoint.
type Resolver interface {
	Resolve(ref string) (key, value string, err error)
}

// ResolveResponse is the JSON body of GET /api/resolve.
type ResolveResponse struct {
	Ref      string `json:"ref"`
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Resolved bool   `json:"resolved"`
}

// NewRouter builds the preview router: static serving of the output
// tree, health checks, crosslink resolution, and (if non-nil) the SSE
// event stream.
func NewRouter(outputDir string, resolver Resolver, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/resolve", handleResolve(resolver))

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Handle("/*", http.FileServer(http.Dir(outputDir)))
	return r
}

func handleResolve(resolver Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("ref")
		if ref == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing ref parameter"})
			return
		}
		key, value, err := resolver.Resolve(ref)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, ResolveResponse{
			Ref:      ref,
			Key:      key,
			Value:    value,
			Resolved: value != "",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
