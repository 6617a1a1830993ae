package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"kata/internal/models"
	"kata/internal/services"

	"github.com/gorilla/mux"
)

// pathTypes maps the route segment to the media type it serves.
var pathTypes = map[string]models.MediaType{
	"movies": models.TypeMovie,
	"series": models.TypeSeries,
	"books":  models.TypeBook,
	"games":  models.TypeGame,
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := pathTypes[mux.Vars(r)["mediaType"]]
	if !ok {
		respondError(w, http.StatusNotFound, "unknown media type")
		return
	}

	query, err := services.SanitizeQuery(r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var results []models.SearchResult
	switch mediaType {
	case models.TypeMovie, models.TypeSeries:
		if a.c.TMDB == nil {
			respondError(w, http.StatusInternalServerError, "TMDB credentials not configured")
			return
		}
		results, err = a.c.TMDB.Search(r.Context(), mediaType, query)
	case models.TypeBook:
		results, err = a.c.Books.Search(r.Context(), query)
	case models.TypeGame:
		if a.c.IGDB == nil {
			respondError(w, http.StatusInternalServerError, "IGDB credentials not configured")
			return
		}
		results, err = a.c.IGDB.SearchGames(r.Context(), query)
	}

	if err != nil {
		a.c.Logger.WithError(err).WithField("media_type", mediaType).Error("Provider search failed")
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *API) upcoming(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := pathTypes[mux.Vars(r)["mediaType"]]
	if !ok {
		respondError(w, http.StatusNotFound, "unknown media type")
		return
	}

	windowDays, err := services.PeriodWindow(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var results []models.SearchResult
	var genres []models.GenreOption
	switch mediaType {
	case models.TypeMovie, models.TypeSeries:
		if a.c.TMDB == nil {
			respondError(w, http.StatusInternalServerError, "TMDB credentials not configured")
			return
		}
		results, genres, err = a.c.TMDB.Upcoming(r.Context(), mediaType, windowDays)
	case models.TypeBook:
		results, err = a.c.Books.Upcoming(r.Context(), windowDays)
		genres = bookGenreOptions(results)
	case models.TypeGame:
		if a.c.IGDB == nil {
			respondError(w, http.StatusInternalServerError, "IGDB credentials not configured")
			return
		}
		results, err = a.c.IGDB.UpcomingGames(r.Context(), windowDays)
		if err == nil {
			genres, err = a.c.IGDB.GenreOptions(r.Context())
		}
	}

	if err != nil {
		a.c.Logger.WithError(err).WithField("media_type", mediaType).Error("Provider upcoming lookup failed")
		respondError(w, http.StatusInternalServerError, "upcoming lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results":         results,
		"availableGenres": genres,
	})
}

func (a *API) recommendations(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	genres := splitCSV(r.URL.Query().Get("genres"))
	exclude := splitCSV(r.URL.Query().Get("exclude"))

	daySeed := services.DaySeed()
	if raw := r.URL.Query().Get("daySeed"); raw != "" {
		seed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "daySeed must be an integer")
			return
		}
		daySeed = seed
	}

	results, err := a.c.Recommender.Daily(r.Context(), kind, genres, exclude, daySeed)
	if err != nil {
		if errors.Is(err, services.ErrUnknownKind) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.c.Logger.WithError(err).WithField("type", kind).Error("Recommendation lookup failed")
		respondError(w, http.StatusInternalServerError, "recommendations failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// bookGenreOptions distills filter options from the categories present in
// the results, since Google Books has no genre table to fetch.
func bookGenreOptions(results []models.SearchResult) []models.GenreOption {
	seen := map[string]struct{}{}
	var options []models.GenreOption
	for _, r := range results {
		for _, g := range r.Genres {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			options = append(options, models.GenreOption{ID: g, Name: g})
		}
	}
	return options
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
