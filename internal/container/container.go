package container

import (
	"context"
	"fmt"
	"time"

	"kata/internal/auth"
	"kata/internal/cache"
	"kata/internal/config"
	"kata/internal/database"
	"kata/internal/library"
	"kata/internal/logger"
	"kata/internal/ratelimit"
	"kata/internal/repository"
	"kata/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Per-route fixed-window budgets for the proxy routes.
const (
	searchWindow   = time.Minute
	searchMax      = 10
	upcomingWindow = time.Minute
	upcomingMax    = 10
	recsWindow     = time.Minute
	recsMax        = 20
)

// Container wires every dependency once at startup. Content provider
// clients are nil when their credentials are missing; the routes they back
// then answer 500 instead of the process refusing to start.
type Container struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Logger *logrus.Logger

	Auth        *auth.Client
	TMDB        *services.TMDBClient
	Books       *services.BooksClient
	IGDB        *services.IGDBClient
	Recommender *services.Recommender

	Items       repository.MediaRepository
	Collections repository.CollectionRepository
	Library     *library.Store

	SearchLimiter   *ratelimit.Limiter
	UpcomingLimiter *ratelimit.Limiter
	RecsLimiter     *ratelimit.Limiter
}

func New(ctx context.Context) (*Container, error) {
	log := logger.Get()

	db, err := database.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	redisClient, err := cache.New(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	authCfg, err := config.AuthProviderConfig()
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}
	if authCfg.URL == "" || authCfg.Key == "" {
		log.Warn("Auth provider not configured, all callers will be anonymous")
	}

	keys := config.ContentProviderKeys()

	var tmdb *services.TMDBClient
	if keys.TMDBAPIKey != "" {
		tmdb = services.NewTMDBClient(keys.TMDBAPIKey, redisClient, log)
	} else {
		log.Warn("TMDB_API_KEY not set, movie and series routes are disabled")
	}

	books := services.NewBooksClient(keys.GoogleBooksKey, log)

	var igdb *services.IGDBClient
	if keys.IGDBClientID != "" && keys.IGDBClientSecret != "" {
		igdb = services.NewIGDBClient(services.IGDBConfig{
			ClientID:     keys.IGDBClientID,
			ClientSecret: keys.IGDBClientSecret,
			Redis:        redisClient,
			Logger:       log,
		})
	} else {
		log.Warn("IGDB credentials not set, game routes are disabled")
	}

	items := repository.NewMediaRepository(db)
	collections := repository.NewCollectionRepository(db)

	limiterStore := newLimiterStore(redisClient, log)

	return &Container{
		DB:     db,
		Redis:  redisClient,
		Logger: log,

		Auth:        auth.NewClient(authCfg, log),
		TMDB:        tmdb,
		Books:       books,
		IGDB:        igdb,
		Recommender: services.NewRecommender(tmdb, books, igdb, redisClient, log),

		Items:       items,
		Collections: collections,
		Library:     library.NewStore(items, redisClient, log),

		SearchLimiter:   ratelimit.NewLimiter(limiterStore, "search", searchWindow, searchMax),
		UpcomingLimiter: ratelimit.NewLimiter(limiterStore, "upcoming", upcomingWindow, upcomingMax),
		RecsLimiter:     ratelimit.NewLimiter(limiterStore, "recommendations", recsWindow, recsMax),
	}, nil
}

// newLimiterStore picks the counter backend. In-memory is the default; a
// Redis store shares the window across instances.
func newLimiterStore(redisClient *redis.Client, log *logrus.Logger) ratelimit.Store {
	if config.GetEnv("RATE_LIMIT_STORE", "memory") == "redis" {
		log.Info("Rate limiting backed by Redis")
		return ratelimit.NewRedisStore(redisClient)
	}
	return ratelimit.NewMemoryStore()
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
