package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kata/internal/cache"
	"kata/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	igdbBaseURL       = "https://api.igdb.com/v4"
	twitchTokenURL    = "https://id.twitch.tv/oauth2/token"
	igdbGenreCacheKey = "genres:igdb"

	// Tokens are treated as expired this long before they actually are,
	// so a reissue happens with margin to spare.
	tokenExpiryMargin = 5 * time.Minute
)

// IGDBClient searches IGDB for games. Authentication is an OAuth2
// client-credentials exchange against Twitch; the token source caches the
// token process-wide and serializes concurrent refreshes, so simultaneous
// callers share one in-flight exchange.
type IGDBClient struct {
	apiClient
	baseURL  string
	clientID string
	tokens   oauth2.TokenSource
	redis    *redis.Client
}

type IGDBConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Redis        *redis.Client
	Logger       *logrus.Logger
}

func NewIGDBClient(cfg IGDBConfig) *IGDBClient {
	if cfg.TokenURL == "" {
		cfg.TokenURL = twitchTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = igdbBaseURL
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	return &IGDBClient{
		apiClient: newAPIClient(cfg.Logger, 4),
		baseURL:   cfg.BaseURL,
		clientID:  cfg.ClientID,
		tokens:    oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(context.Background()), tokenExpiryMargin),
		redis:     cfg.Redis,
	}
}

// SearchGames runs a free-text game search.
func (c *IGDBClient) SearchGames(ctx context.Context, query string) ([]models.SearchResult, error) {
	body := fmt.Sprintf(`search "%s"; fields name,summary,cover.url,genres,platforms.name,first_release_date,rating; limit 20;`,
		strings.ReplaceAll(query, `"`, ``))
	return c.games(ctx, body)
}

// UpcomingGames lists games releasing inside the next windowDays days.
func (c *IGDBClient) UpcomingGames(ctx context.Context, windowDays int) ([]models.SearchResult, error) {
	now := time.Now().Unix()
	until := time.Now().AddDate(0, 0, windowDays).Unix()
	body := fmt.Sprintf(`fields name,summary,cover.url,genres,platforms.name,first_release_date,rating; where first_release_date > %d & first_release_date < %d; sort first_release_date asc; limit 20;`,
		now, until)
	return c.games(ctx, body)
}

// ByGenres backs the recommendation service: highly rated games in any of
// the given genres.
func (c *IGDBClient) ByGenres(ctx context.Context, genreNames []string) ([]models.SearchResult, error) {
	genres, err := c.genreTable(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for id, name := range genres {
		for _, want := range genreNames {
			if strings.EqualFold(name, want) {
				ids = append(ids, strconv.Itoa(id))
			}
		}
	}

	where := "rating != null"
	if len(ids) > 0 {
		where = fmt.Sprintf("genres = (%s)", strings.Join(ids, ","))
	}
	body := fmt.Sprintf(`fields name,summary,cover.url,genres,platforms.name,first_release_date,rating; where %s; sort rating desc; limit 20;`, where)
	return c.games(ctx, body)
}

// GenreOptions exposes the cached genre table for upcoming responses.
func (c *IGDBClient) GenreOptions(ctx context.Context) ([]models.GenreOption, error) {
	table, err := c.genreTable(ctx)
	if err != nil {
		return nil, err
	}
	return genreOptions(table), nil
}

func (c *IGDBClient) games(ctx context.Context, query string) ([]models.SearchResult, error) {
	payload, err := c.query(ctx, "games", query)
	if err != nil {
		return nil, err
	}

	var games []models.IGDBGame
	if err := json.Unmarshal(payload, &games); err != nil {
		return nil, fmt.Errorf("failed to decode IGDB response: %w", err)
	}

	genres, err := c.genreTable(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("IGDB genre lookup failed, results will carry no genre names")
		genres = map[int]string{}
	}
	return normalizeGames(games, genres), nil
}

// query POSTs an APIcalypse body to an IGDB entity endpoint with a fresh
// bearer token.
func (c *IGDBClient) query(ctx context.Context, entity, body string) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("IGDB token exchange failed: %w", err)
	}

	headers := map[string]string{
		"Client-ID":     c.clientID,
		"Authorization": "Bearer " + token,
	}
	payload, err := c.request(ctx, "POST", c.baseURL+"/"+entity, []byte(body), headers)
	if err != nil {
		return nil, fmt.Errorf("IGDB request failed: %w", err)
	}
	return payload, nil
}

func (c *IGDBClient) token(context.Context) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func (c *IGDBClient) genreTable(ctx context.Context) (map[int]string, error) {
	table := map[int]string{}
	if ok, err := cache.GetJSON(ctx, c.redis, igdbGenreCacheKey, &table); err != nil {
		c.logger.WithError(err).Warn("Failed to read genre table from cache")
	} else if ok {
		return table, nil
	}

	payload, err := c.query(ctx, "genres", "fields id,name; limit 100;")
	if err != nil {
		return nil, err
	}

	var genres []models.IGDBGenre
	if err := json.Unmarshal(payload, &genres); err != nil {
		return nil, fmt.Errorf("failed to decode genre list: %w", err)
	}

	table = make(map[int]string, len(genres))
	for _, g := range genres {
		table[g.ID] = g.Name
	}

	if err := cache.SetJSON(ctx, c.redis, igdbGenreCacheKey, table, genreCacheTTL); err != nil {
		c.logger.WithError(err).Warn("Failed to cache genre table")
	}
	return table, nil
}

func normalizeGames(games []models.IGDBGame, genres map[int]string) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(games))
	for _, g := range games {
		if g.Name == "" {
			continue
		}

		result := models.SearchResult{
			ID:          strconv.Itoa(g.ID),
			Type:        models.TypeGame,
			Title:       g.Name,
			Description: g.Summary,
			Score:       g.Rating / 20, // IGDB rates 0-100
		}
		if g.FirstReleaseDate > 0 {
			released := time.Unix(g.FirstReleaseDate, 0).UTC()
			result.ReleaseDate = released.Format("2006-01-02")
			result.ReleaseYear = released.Year()
		}
		if g.Cover.URL != "" {
			cover := g.Cover.URL
			if strings.HasPrefix(cover, "//") {
				cover = "https:" + cover
			}
			result.CoverURL = strings.Replace(cover, "t_thumb", "t_cover_big", 1)
		}
		if len(g.Platforms) > 0 {
			result.Platform = g.Platforms[0].Name
		}
		for _, id := range g.GenreIDs {
			if name, ok := genres[id]; ok {
				result.Genres = append(result.Genres, name)
			}
		}
		results = append(results, result)
	}
	return results
}
