// Package twitter is the wire layer for the v2 search API: it issues single
// paginated requests and decodes response envelopes. Retry, pacing and
// failure policy live in pkg/fetcher; nothing here retries.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tweetarc/pkg/logger"
)

// Client talks to the search endpoint. One request per call, no retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     logger.Logger
}

// NewClient creates a search API client authenticating with a bearer token.
func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     log,
	}
}

// Result is one classified response. Page is set on success; APIError is set
// when the body carried a structured error; RateLimit reflects the response
// headers either way.
type Result struct {
	Status    int
	Page      *Page
	APIError  *APIError
	RateLimit RateLimitState
}

// SearchPage fetches and decodes one page of search results. nextToken is
// empty for the first page. A non-2xx status is not an error here; the
// caller classifies it from Result.Status.
func (c *Client) SearchPage(ctx context.Context, params SearchParams, nextToken string) (*Result, error) {
	reqURL := searchURL(c.baseURL, params, nextToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   reqURL,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      reqURL,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	result := &Result{
		Status:    resp.StatusCode,
		RateLimit: parseRateLimit(resp.Header),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var envelope searchResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse response envelope", map[string]interface{}{
				"status":       resp.StatusCode,
				"body_preview": preview,
			})
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		result.Page = &Page{
			Tweets:      envelope.Data,
			ResultCount: envelope.Meta.ResultCount,
			NextToken:   envelope.Meta.NextToken,
		}
		return result, nil
	}

	// Error bodies are best-effort structured; an undecodable body leaves
	// APIError nil and classification falls back on the status alone.
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		result.APIError = &apiErr
	}

	return result, nil
}
