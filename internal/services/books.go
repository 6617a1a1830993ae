package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kata/internal/models"

	"github.com/sirupsen/logrus"
)

const booksBaseURL = "https://www.googleapis.com/books/v1"

// BooksClient searches the Google Books volumes API. Volumes carry their
// category names directly, so no genre table is needed.
type BooksClient struct {
	apiClient
	baseURL string
	apiKey  string
}

func NewBooksClient(apiKey string, logger *logrus.Logger) *BooksClient {
	return &BooksClient{
		apiClient: newAPIClient(logger, 2),
		baseURL:   booksBaseURL,
		apiKey:    apiKey,
	}
}

// Search runs a free-text volume search.
func (c *BooksClient) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return c.volumes(ctx, query, "relevance")
}

// Upcoming approximates "releases in the next windowDays days": newest
// volumes whose published date falls inside the window. Google Books has
// no discover endpoint, so this filters client-side.
func (c *BooksClient) Upcoming(ctx context.Context, windowDays int) ([]models.SearchResult, error) {
	results, err := c.volumes(ctx, "*", "newest")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	until := now.AddDate(0, 0, windowDays)

	upcoming := results[:0]
	for _, r := range results {
		published, err := time.Parse("2006-01-02", r.ReleaseDate)
		if err != nil {
			continue
		}
		if published.After(now) && published.Before(until) {
			upcoming = append(upcoming, r)
		}
	}
	return upcoming, nil
}

// BySubject backs the recommendation service with a subject search.
func (c *BooksClient) BySubject(ctx context.Context, subject string) ([]models.SearchResult, error) {
	return c.volumes(ctx, "subject:"+subject, "relevance")
}

func (c *BooksClient) volumes(ctx context.Context, query, orderBy string) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("orderBy", orderBy)
	params.Set("maxResults", "20")
	params.Set("printType", "books")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	body, err := c.request(ctx, "GET", fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("Google Books request failed: %w", err)
	}

	var resp models.BooksSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}
	return normalizeBooks(resp.Items), nil
}

func normalizeBooks(volumes []models.BookVolume) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(volumes))
	for _, v := range volumes {
		info := v.VolumeInfo
		if info.Title == "" {
			continue
		}

		result := models.SearchResult{
			ID:          v.ID,
			Type:        models.TypeBook,
			Title:       info.Title,
			ReleaseDate: info.PublishedDate,
			Genres:      info.Categories,
			Description: info.Description,
			Score:       info.AverageRating,
		}
		if len(info.Authors) > 0 {
			result.Author = info.Authors[0]
		}
		if len(info.PublishedDate) >= 4 {
			if year, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
				result.ReleaseYear = year
			}
		}
		if thumb := info.ImageLinks.Thumbnail; thumb != "" {
			result.CoverURL = strings.Replace(thumb, "http://", "https://", 1)
		}
		results = append(results, result)
	}
	return results
}
