// Package library holds each signed-in user's media list in memory with
// the pure filter/sort/search helpers that drive list views.
package library

import (
	"sort"
	"strings"

	"kata/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortOrder string

const (
	SortCreatedDesc SortOrder = "created_desc"
	SortCreatedAsc  SortOrder = "created_asc"
	SortRatingDesc  SortOrder = "rating_desc"
	SortRatingAsc   SortOrder = "rating_asc"
	SortTitleAsc    SortOrder = "title_asc"
	SortTitleDesc   SortOrder = "title_desc"
)

// Grouped status shorthands accepted by Filters.Status in addition to the
// exact per-type statuses.
const (
	GroupInProgress = "IN_PROGRESS"
	GroupPlanned    = "PLANNED"
)

// Filters compose with logical AND; "ALL" (or empty) disables a dimension.
type Filters struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Rating string `json:"rating"`
	Genre  string `json:"genre"`
}

func (f Filters) matches(item models.MediaItem) bool {
	if !filterAll(f.Type) && string(item.Type) != f.Type {
		return false
	}
	if !filterAll(f.Status) && !statusMatches(item, f.Status) {
		return false
	}
	if !filterAll(f.Rating) && !ratingMatches(item.Rating, f.Rating) {
		return false
	}
	if !filterAll(f.Genre) && !genreMatches(item.Genres, f.Genre) {
		return false
	}
	return true
}

func filterAll(v string) bool {
	return v == "" || v == "ALL"
}

func statusMatches(item models.MediaItem, want string) bool {
	switch want {
	case GroupInProgress:
		return item.Status == models.StatusReading ||
			item.Status == models.StatusPlaying ||
			item.Status == models.StatusWatching
	case GroupPlanned:
		return item.Status == models.StatusWantToRead ||
			item.Status == models.StatusWantToPlay ||
			item.Status == models.StatusWantToWatch
	default:
		return string(item.Status) == want
	}
}

// Rating buckets: LOW < 2.5, MID 2.5-3.9, HIGH >= 4. Unrated items match
// no bucket.
func ratingMatches(rating *float64, bucket string) bool {
	if rating == nil {
		return false
	}
	switch bucket {
	case "LOW":
		return *rating < 2.5
	case "MID":
		return *rating >= 2.5 && *rating < 4
	case "HIGH":
		return *rating >= 4
	default:
		return false
	}
}

func genreMatches(genres []string, want string) bool {
	for _, g := range genres {
		if strings.EqualFold(g, want) {
			return true
		}
	}
	return false
}

// Filter returns the items matching every active filter dimension.
func Filter(items []models.MediaItem, f Filters) []models.MediaItem {
	matched := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if f.matches(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// Sort returns a sorted copy. The sort is stable, missing ratings sort as
// 0, and title order is locale-aware.
func Sort(items []models.MediaItem, order SortOrder) []models.MediaItem {
	sorted := make([]models.MediaItem, len(items))
	copy(sorted, items)

	var less func(a, b models.MediaItem) bool
	switch order {
	case SortCreatedAsc:
		less = func(a, b models.MediaItem) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortRatingDesc:
		less = func(a, b models.MediaItem) bool { return ratingOrZero(a.Rating) > ratingOrZero(b.Rating) }
	case SortRatingAsc:
		less = func(a, b models.MediaItem) bool { return ratingOrZero(a.Rating) < ratingOrZero(b.Rating) }
	case SortTitleAsc, SortTitleDesc:
		c := collate.New(language.English, collate.IgnoreCase)
		if order == SortTitleAsc {
			less = func(a, b models.MediaItem) bool { return c.CompareString(a.Title, b.Title) < 0 }
		} else {
			less = func(a, b models.MediaItem) bool { return c.CompareString(a.Title, b.Title) > 0 }
		}
	default: // SortCreatedDesc
		less = func(a, b models.MediaItem) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

func ratingOrZero(rating *float64) float64 {
	if rating == nil {
		return 0
	}
	return *rating
}

// Search matches a case-insensitive substring against title, author,
// platform and genres. Queries under 2 characters mean "no filter".
func Search(items []models.MediaItem, query string) []models.MediaItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if len(query) < 2 {
		return items
	}

	matched := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if searchMatches(item, query) {
			matched = append(matched, item)
		}
	}
	return matched
}

func searchMatches(item models.MediaItem, query string) bool {
	if strings.Contains(strings.ToLower(item.Title), query) {
		return true
	}
	if item.Author != nil && strings.Contains(strings.ToLower(*item.Author), query) {
		return true
	}
	if item.Platform != nil && strings.Contains(strings.ToLower(*item.Platform), query) {
		return true
	}
	for _, g := range item.Genres {
		if strings.Contains(strings.ToLower(g), query) {
			return true
		}
	}
	return false
}
