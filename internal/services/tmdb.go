package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"kata/internal/cache"
	"kata/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	tmdbBaseURL       = "https://api.themoviedb.org/3"
	tmdbImageBaseURL  = "https://image.tmdb.org/t/p/w500"
	tmdbGenreCacheKey = "genres:tmdb:"
)

// TMDBClient serves both movie and series lookups against TMDB.
type TMDBClient struct {
	apiClient
	baseURL string
	apiKey  string
	redis   *redis.Client
}

func NewTMDBClient(apiKey string, redisClient *redis.Client, logger *logrus.Logger) *TMDBClient {
	return &TMDBClient{
		apiClient: newAPIClient(logger, 4),
		baseURL:   tmdbBaseURL,
		apiKey:    apiKey,
		redis:     redisClient,
	}
}

// kind is TMDB's path segment for a media type: "movie" or "tv".
func tmdbKind(mediaType models.MediaType) string {
	if mediaType == models.TypeSeries {
		return "tv"
	}
	return "movie"
}

// Search runs a free-text search for movies or series.
func (c *TMDBClient) Search(ctx context.Context, mediaType models.MediaType, query string) ([]models.SearchResult, error) {
	kind := tmdbKind(mediaType)

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("include_adult", "false")

	body, err := c.request(ctx, "GET", fmt.Sprintf("%s/search/%s?%s", c.baseURL, kind, params.Encode()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("TMDB search failed: %w", err)
	}

	var resp models.TMDBSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	genres, err := c.genreTable(ctx, kind)
	if err != nil {
		c.logger.WithError(err).Warn("TMDB genre lookup failed, results will carry no genre names")
		genres = map[int]string{}
	}

	return c.normalize(mediaType, resp.Results, genres), nil
}

// Upcoming lists releases inside the next windowDays days, along with the
// genre table the caller can offer as filter options.
func (c *TMDBClient) Upcoming(ctx context.Context, mediaType models.MediaType, windowDays int) ([]models.SearchResult, []models.GenreOption, error) {
	kind := tmdbKind(mediaType)
	now := time.Now()
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, windowDays).Format("2006-01-02")

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("sort_by", "popularity.desc")
	if kind == "tv" {
		params.Set("first_air_date.gte", from)
		params.Set("first_air_date.lte", to)
	} else {
		params.Set("primary_release_date.gte", from)
		params.Set("primary_release_date.lte", to)
	}

	body, err := c.request(ctx, "GET", fmt.Sprintf("%s/discover/%s?%s", c.baseURL, kind, params.Encode()), nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("TMDB discover failed: %w", err)
	}

	var resp models.TMDBSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	genres, err := c.genreTable(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("TMDB genre lookup failed: %w", err)
	}

	return c.normalize(mediaType, resp.Results, genres), genreOptions(genres), nil
}

// DiscoverByGenres backs the recommendation service: popular titles
// matching any of the given genre names.
func (c *TMDBClient) DiscoverByGenres(ctx context.Context, mediaType models.MediaType, genreNames []string) ([]models.SearchResult, error) {
	kind := tmdbKind(mediaType)

	genres, err := c.genreTable(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("TMDB genre lookup failed: %w", err)
	}

	var ids []string
	for id, name := range genres {
		for _, want := range genreNames {
			if strings.EqualFold(name, want) {
				ids = append(ids, strconv.Itoa(id))
			}
		}
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("sort_by", "popularity.desc")
	if len(ids) > 0 {
		params.Set("with_genres", strings.Join(ids, ","))
	}

	body, err := c.request(ctx, "GET", fmt.Sprintf("%s/discover/%s?%s", c.baseURL, kind, params.Encode()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("TMDB discover failed: %w", err)
	}

	var resp models.TMDBSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return c.normalize(mediaType, resp.Results, genres), nil
}

// genreTable returns the id→name genre map for a kind, cached for 24h.
func (c *TMDBClient) genreTable(ctx context.Context, kind string) (map[int]string, error) {
	cacheKey := tmdbGenreCacheKey + kind

	table := map[int]string{}
	if ok, err := cache.GetJSON(ctx, c.redis, cacheKey, &table); err != nil {
		c.logger.WithError(err).Warn("Failed to read genre table from cache")
	} else if ok {
		return table, nil
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	body, err := c.request(ctx, "GET", fmt.Sprintf("%s/genre/%s/list?%s", c.baseURL, kind, params.Encode()), nil, nil)
	if err != nil {
		return nil, err
	}

	var list models.TMDBGenreList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode genre list: %w", err)
	}

	table = make(map[int]string, len(list.Genres))
	for _, g := range list.Genres {
		table[g.ID] = g.Name
	}

	if err := cache.SetJSON(ctx, c.redis, cacheKey, table, genreCacheTTL); err != nil {
		c.logger.WithError(err).Warn("Failed to cache genre table")
	}
	return table, nil
}

func (c *TMDBClient) normalize(mediaType models.MediaType, results []models.TMDBResult, genres map[int]string) []models.SearchResult {
	normalized := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		title := r.Title
		date := r.ReleaseDate
		if mediaType == models.TypeSeries {
			title = r.Name
			date = r.FirstAirDate
		}
		if title == "" {
			continue
		}

		result := models.SearchResult{
			ID:          strconv.Itoa(r.ID),
			Type:        mediaType,
			Title:       title,
			ReleaseDate: date,
			Description: r.Overview,
			Score:       r.VoteAverage,
		}
		if len(date) >= 4 {
			if year, err := strconv.Atoi(date[:4]); err == nil {
				result.ReleaseYear = year
			}
		}
		if r.PosterPath != "" {
			result.CoverURL = tmdbImageBaseURL + r.PosterPath
		}
		for _, id := range r.GenreIDs {
			if name, ok := genres[id]; ok {
				result.Genres = append(result.Genres, name)
			}
		}
		normalized = append(normalized, result)
	}
	return normalized
}

func genreOptions(table map[int]string) []models.GenreOption {
	options := make([]models.GenreOption, 0, len(table))
	for id, name := range table {
		options = append(options, models.GenreOption{ID: strconv.Itoa(id), Name: name})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Name < options[j].Name })
	return options
}
