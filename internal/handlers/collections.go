package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"kata/internal/auth"
	"kata/internal/models"
	"kata/internal/repository"

	"github.com/gorilla/mux"
)

type collectionPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

func (a *API) listCollections(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	collections, err := a.c.Collections.ListByUser(r.Context(), user.ID)
	if err != nil {
		a.c.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to list collections")
		respondError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"collections": collections})
}

func (a *API) createCollection(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var payload collectionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == nil {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	collection, err := models.NewCollection(user.ID, *payload.Name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyCollectionPayload(collection, payload)
	if err := collection.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.c.Collections.Create(r.Context(), collection); err != nil {
		a.c.Logger.WithError(err).WithField("user_id", user.ID).Error("Failed to create collection")
		respondError(w, http.StatusInternalServerError, "failed to create collection")
		return
	}
	respondJSON(w, http.StatusCreated, collection)
}

func (a *API) updateCollection(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	collection, err := a.c.Collections.GetByID(r.Context(), user.ID, id)
	if err != nil {
		a.respondCollectionError(w, err, id, "Failed to load collection")
		return
	}

	var payload collectionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name != nil {
		collection.Name = *payload.Name
	}
	applyCollectionPayload(collection, payload)
	if err := collection.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	collection.UpdatedAt = time.Now().UTC()
	if err := a.c.Collections.Update(r.Context(), collection); err != nil {
		a.respondCollectionError(w, err, id, "Failed to update collection")
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

func (a *API) deleteCollection(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := a.c.Collections.Delete(r.Context(), user.ID, id); err != nil {
		a.respondCollectionError(w, err, id, "Failed to delete collection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (a *API) collectionItems(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := mux.Vars(r)["id"]

	ids, err := a.c.Collections.ItemIDs(r.Context(), user.ID, id)
	if err != nil {
		a.respondCollectionError(w, err, id, "Failed to list collection items")
		return
	}

	items := make([]models.MediaItem, 0, len(ids))
	for _, itemID := range ids {
		if item, ok := a.c.Library.Get(user.ID, itemID); ok {
			items = append(items, *item)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) addCollectionItem(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)

	if _, ok := a.c.Library.Get(user.ID, vars["itemID"]); !ok {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err := a.c.Collections.AddItem(r.Context(), user.ID, vars["id"], vars["itemID"]); err != nil {
		a.respondCollectionError(w, err, vars["id"], "Failed to add item to collection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"added": vars["itemID"]})
}

func (a *API) removeCollectionItem(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)

	if err := a.c.Collections.RemoveItem(r.Context(), user.ID, vars["id"], vars["itemID"]); err != nil {
		a.respondCollectionError(w, err, vars["id"], "Failed to remove item from collection")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": vars["itemID"]})
}

func (a *API) respondCollectionError(w http.ResponseWriter, err error, id, logMessage string) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "collection not found")
		return
	}
	a.c.Logger.WithError(err).WithField("collection_id", id).Error(logMessage)
	respondError(w, http.StatusInternalServerError, "collection operation failed")
}

func applyCollectionPayload(collection *models.Collection, payload collectionPayload) {
	if payload.Description != nil {
		collection.Description = *payload.Description
	}
	if payload.Color != nil {
		collection.Color = *payload.Color
	}
	if payload.Icon != nil {
		collection.Icon = *payload.Icon
	}
}
