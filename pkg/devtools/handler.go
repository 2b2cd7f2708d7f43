package devtools

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/vstore/internal/errors"
)

// Handler returns the inspector HTTP API:
//
//	GET /stores             registered stores
//	GET /stores/{name}      one store
//	GET /stores/{name}/ws   WebSocket stream of transitions
//	GET /components         registered components and their debug values
func (r *Registry) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/stores", r.handleStores)
	router.Get("/stores/{name}", r.handleStore)
	router.Get("/stores/{name}/ws", r.handleStream)
	router.Get("/components", r.handleComponents)

	return router
}

// Mount adds the inspector API to an existing chi router under prefix.
func (r *Registry) Mount(router chi.Router, prefix string) {
	router.Mount(prefix, r.Handler())
}

func (r *Registry) handleStores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.Stores())
}

func (r *Registry) handleStore(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")
	info, ok := r.Store(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFound(name))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (r *Registry) handleStream(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")
	e := r.lookup(name)
	if e == nil {
		writeJSON(w, http.StatusNotFound, notFound(name))
		return
	}

	if err := e.hub.serve(w, req); err != nil {
		// The upgrader has already written the HTTP error.
		r.logger.Warn("devtools stream upgrade failed",
			"store", name,
			"error", errors.New(errors.CodeWebSocketFailed).Wrap(err),
		)
	}
}

func (r *Registry) handleComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.Components())
}

func notFound(name string) *errors.VStoreError {
	return errors.New(errors.CodeStoreNotFound).
		WithDetail("No store named " + name + " is registered").
		WithSuggestion("GET /stores lists the registered stores")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
