package services

import (
	"context"
	"fmt"
	"time"

	"kata/internal/cache"
	"kata/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// recsCacheTTL outlives any single day seed; the seed in the key is what
// actually invalidates an entry once the calendar day rolls over.
const recsCacheTTL = 48 * time.Hour

// ErrUnknownKind signals a caller error rather than a provider failure.
var ErrUnknownKind = fmt.Errorf("type must be one of movie, tv, game, book")

// Recommender produces the daily recommendation set for one media kind.
// Results are cached per kind and day seed, so every request on the same
// calendar day sees the same picks.
type Recommender struct {
	tmdb   *TMDBClient
	books  *BooksClient
	igdb   *IGDBClient
	redis  *redis.Client
	logger *logrus.Logger
}

func NewRecommender(tmdb *TMDBClient, books *BooksClient, igdb *IGDBClient, redisClient *redis.Client, logger *logrus.Logger) *Recommender {
	return &Recommender{
		tmdb:   tmdb,
		books:  books,
		igdb:   igdb,
		redis:  redisClient,
		logger: logger,
	}
}

// DaySeed is the default seed: the current day of year.
func DaySeed() int {
	return time.Now().YearDay()
}

// Daily returns recommendations for kind ("movie", "tv", "book" or
// "game"), preferring the given genres and dropping excluded ids.
func (r *Recommender) Daily(ctx context.Context, kind string, genres, exclude []string, daySeed int) ([]models.SearchResult, error) {
	cacheKey := fmt.Sprintf("recs:%s:%d", kind, daySeed)

	var results []models.SearchResult
	if ok, err := cache.GetJSON(ctx, r.redis, cacheKey, &results); err != nil {
		r.logger.WithError(err).Warn("Failed to read recommendations from cache")
	} else if ok {
		return dropExcluded(results, exclude), nil
	}

	results, err := r.fetch(ctx, kind, genres)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, r.redis, cacheKey, results, recsCacheTTL); err != nil {
		r.logger.WithError(err).Warn("Failed to cache recommendations")
	}
	return dropExcluded(results, exclude), nil
}

func (r *Recommender) fetch(ctx context.Context, kind string, genres []string) ([]models.SearchResult, error) {
	switch kind {
	case "movie":
		if r.tmdb == nil {
			return nil, fmt.Errorf("TMDB credentials not configured")
		}
		return r.tmdb.DiscoverByGenres(ctx, models.TypeMovie, genres)
	case "tv":
		if r.tmdb == nil {
			return nil, fmt.Errorf("TMDB credentials not configured")
		}
		return r.tmdb.DiscoverByGenres(ctx, models.TypeSeries, genres)
	case "game":
		if r.igdb == nil {
			return nil, fmt.Errorf("IGDB credentials not configured")
		}
		return r.igdb.ByGenres(ctx, genres)
	case "book":
		if r.books == nil {
			return nil, fmt.Errorf("Google Books credentials not configured")
		}
		subject := "fiction"
		if len(genres) > 0 {
			subject = genres[0]
		}
		return r.books.BySubject(ctx, subject)
	default:
		return nil, ErrUnknownKind
	}
}

func dropExcluded(results []models.SearchResult, exclude []string) []models.SearchResult {
	if len(exclude) == 0 {
		return results
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	kept := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if _, skip := excluded[r.ID]; !skip {
			kept = append(kept, r)
		}
	}
	return kept
}
