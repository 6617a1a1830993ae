package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kata/internal/auth"
	"kata/internal/library"
	"kata/internal/models"
	"kata/internal/repository"

	"github.com/gorilla/mux"
)

// requireUser rejects callers who are not fully onboarded and makes sure
// their library is hydrated before the handler runs.
func (a *API) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return auth.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		if err := a.c.Library.Hydrate(r.Context(), user.ID); err != nil {
			a.c.Logger.WithError(err).WithField("user_id", user.ID).Error("Library hydration failed")
			respondError(w, http.StatusInternalServerError, "failed to load library")
			return
		}
		next(w, r)
	})
}

func (a *API) listItems(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	if q.Has("type") || q.Has("status") || q.Has("rating") || q.Has("genre") || q.Has("sort") {
		filters := library.Filters{
			Type:   q.Get("type"),
			Status: q.Get("status"),
			Rating: q.Get("rating"),
			Genre:  q.Get("genre"),
		}
		a.c.Library.SetView(r.Context(), user.ID, filters, library.SortOrder(q.Get("sort")))
	}

	items := a.c.Library.View(user.ID, q.Get("search"))
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

type itemPayload struct {
	Type        *models.MediaType `json:"type"`
	Title       *string           `json:"title"`
	CoverURL    *string           `json:"cover_url"`
	Status      *models.Status    `json:"status"`
	Rating      *float64          `json:"rating"`
	Author      *string           `json:"author"`
	Platform    *string           `json:"platform"`
	ReleaseYear *int              `json:"release_year"`
	Genres      []string          `json:"genres"`
	Review      *string           `json:"review"`
}

func (a *API) createItem(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Type == nil || payload.Title == nil || payload.Status == nil {
		respondError(w, http.StatusBadRequest, "type, title and status are required")
		return
	}

	item, err := models.NewMediaItem(user.ID, *payload.Type, *payload.Title, *payload.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyPayload(item, payload)
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.c.Library.Add(r.Context(), item); err != nil {
		a.c.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to create item")
		respondError(w, http.StatusInternalServerError, "failed to create item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	item, ok := a.c.Library.Get(user.ID, id)
	if !ok {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Type != nil && *payload.Type != item.Type {
		respondError(w, http.StatusBadRequest, "item type cannot be changed")
		return
	}

	if payload.Title != nil {
		item.Title = *payload.Title
	}
	if payload.Status != nil {
		item.Status = *payload.Status
	}
	applyPayload(item, payload)
	if err := item.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.c.Library.Update(r.Context(), item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}
		a.c.Logger.WithError(err).WithField("item_id", id).Error("Failed to update item")
		respondError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := a.c.Library.Remove(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found")
			return
		}
		a.c.Logger.WithError(err).WithField("item_id", id).Error("Failed to delete item")
		respondError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// applyPayload copies the optional metadata fields onto the item.
func applyPayload(item *models.MediaItem, payload itemPayload) {
	if payload.CoverURL != nil {
		item.CoverURL = *payload.CoverURL
	}
	if payload.Rating != nil {
		item.Rating = payload.Rating
	}
	if payload.Author != nil {
		item.Author = payload.Author
	}
	if payload.Platform != nil {
		item.Platform = payload.Platform
	}
	if payload.ReleaseYear != nil {
		item.ReleaseYear = payload.ReleaseYear
	}
	if payload.Genres != nil {
		item.Genres = payload.Genres
	}
	if payload.Review != nil {
		item.Review = payload.Review
	}
}
