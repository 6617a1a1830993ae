// Package services holds the clients for the external content catalogs
// (TMDB, Google Books, IGDB) and the recommendation service built on them.
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 30 * time.Second
	maxRetries      = 3
	retryDelay      = 2 * time.Second
	userAgent       = "Kata/1.0"
	maxResponseSize = 5 * 1024 * 1024
	maxQueryLength  = 100
	genreCacheTTL   = 24 * time.Hour
)

// PeriodWindow maps an upcoming-period name to its day window.
func PeriodWindow(period string) (int, error) {
	switch period {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	case "quarter":
		return 90, nil
	default:
		return 0, fmt.Errorf("period must be one of week, month, quarter")
	}
}

// SanitizeQuery trims and caps a free-text query. Empty queries are
// rejected; overlong ones are cut at the cap rather than refused.
func SanitizeQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", fmt.Errorf("search query cannot be empty")
	}
	if len(query) > maxQueryLength {
		query = strings.TrimSpace(query[:maxQueryLength])
	}
	return query, nil
}

// apiClient is the shared HTTP plumbing for every provider: timeout and
// transport tuning, outbound pacing, retries with backoff, and a size cap
// on response bodies.
type apiClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
	pacer      *rate.Limiter
}

func newAPIClient(logger *logrus.Logger, perSecond float64) apiClient {
	if logger == nil {
		logger = logrus.New()
	}
	return apiClient{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
		pacer:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// request performs one paced, retried HTTP call and returns the body.
func (c *apiClient) request(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	var rErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			rErr = fmt.Errorf("failed to make HTTP request: %w", err)
			c.retryLogger(attempt, url, rErr)
			c.waitForRetry(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			rErr = fmt.Errorf("API returned status code %d", resp.StatusCode)
			c.retryLogger(attempt, url, rErr)
			c.waitForRetry(ctx, attempt)
			continue
		}

		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
		resp.Body.Close()
		if err != nil {
			rErr = fmt.Errorf("failed to read response body: %w", err)
			c.retryLogger(attempt, url, rErr)
			c.waitForRetry(ctx, attempt)
			continue
		}
		if len(payload) > maxResponseSize {
			return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
		}

		c.logger.WithFields(logrus.Fields{
			"url":           url,
			"attempt":       attempt,
			"response_size": len(payload),
		}).Debug("API request successful")
		return payload, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, rErr)
}

func (c *apiClient) retryLogger(attempt int, url string, err error) {
	c.logger.WithFields(logrus.Fields{
		"attempt": attempt + 1,
		"url":     url,
		"error":   err.Error(),
	}).Warn("API request failed, retrying...")
}

func (c *apiClient) waitForRetry(ctx context.Context, attempt int) {
	if attempt >= maxRetries-1 {
		return
	}
	delay := time.Duration(attempt+1) * retryDelay
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
