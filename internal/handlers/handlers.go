// Package handlers wires the HTTP surface: content proxy routes, the auth
// callback, and the authenticated library CRUD.
package handlers

import (
	"encoding/json"
	"net/http"

	"kata/internal/container"
	"kata/internal/ratelimit"

	"github.com/gorilla/mux"
)

type API struct {
	c *container.Container
}

func New(c *container.Container) *API {
	return &API{c: c}
}

// Register attaches every route to the router. The proxy routes sit behind
// their per-route limiters; the library routes additionally require an
// onboarded user (the session-guard middleware is installed router-wide by
// the caller).
func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/health", a.health).Methods("GET")
	r.HandleFunc("/auth/callback", a.authCallback).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", a.session).Methods("GET")

	search := api.PathPrefix("/search").Subrouter()
	search.Use(ratelimit.Middleware(a.c.SearchLimiter, a.c.Logger))
	search.HandleFunc("/{mediaType}", a.search).Methods("GET")

	upcoming := api.PathPrefix("/upcoming").Subrouter()
	upcoming.Use(ratelimit.Middleware(a.c.UpcomingLimiter, a.c.Logger))
	upcoming.HandleFunc("/{mediaType}", a.upcoming).Methods("GET")

	recs := api.PathPrefix("/recommendations").Subrouter()
	recs.Use(ratelimit.Middleware(a.c.RecsLimiter, a.c.Logger))
	recs.HandleFunc("", a.recommendations).Methods("GET")

	api.HandleFunc("/items", a.requireUser(a.listItems)).Methods("GET")
	api.HandleFunc("/items", a.requireUser(a.createItem)).Methods("POST")
	api.HandleFunc("/items/{id}", a.requireUser(a.updateItem)).Methods("PATCH")
	api.HandleFunc("/items/{id}", a.requireUser(a.deleteItem)).Methods("DELETE")

	api.HandleFunc("/collections", a.requireUser(a.listCollections)).Methods("GET")
	api.HandleFunc("/collections", a.requireUser(a.createCollection)).Methods("POST")
	api.HandleFunc("/collections/{id}", a.requireUser(a.updateCollection)).Methods("PATCH")
	api.HandleFunc("/collections/{id}", a.requireUser(a.deleteCollection)).Methods("DELETE")
	api.HandleFunc("/collections/{id}/items", a.requireUser(a.collectionItems)).Methods("GET")
	api.HandleFunc("/collections/{id}/items/{itemID}", a.requireUser(a.addCollectionItem)).Methods("POST")
	api.HandleFunc("/collections/{id}/items/{itemID}", a.requireUser(a.removeCollectionItem)).Methods("DELETE")
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
