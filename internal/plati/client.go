package plati

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/plati-tools/platiscout/internal/types"
)

// Client talks to the marketplace APIs: search pages, listing detail
// and seller reviews. It owns rate limiting, per-call timeouts and
// bounded retry with exponential backoff; permanent failures bubble up
// to the engine where the listing is dropped and counted.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      *types.Config
	logger      *log.Logger
	debug       bool
}

// NewClient creates a marketplace client from the app configuration
func NewClient(cfg *types.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("API endpoint is required")
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		httpClient:  &http.Client{Transport: transport},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		config:      cfg,
		logger:      log.New(os.Stderr, "[PlatiClient] ", log.LstdFlags),
		debug:       cfg.Debug,
	}, nil
}

// statusError marks an HTTP failure; 429 and 5xx are transient
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func isRetryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.retryable()
	}
	// Network-level failures (timeouts, resets) are worth a retry.
	return true
}

// SearchPage fetches one page of search results for a text query
func (c *Client) SearchPage(ctx context.Context, query string, page, perPage int, currency, lang string) (*SearchContent, error) {
	reqURL := buildSearchURL(c.config.APIEndpoint, query, page, perPage, currency, lang)

	var payload SearchResponse
	if err := c.fetchJSON(ctx, reqURL, c.config.SearchTimeout, &payload); err != nil {
		return nil, fmt.Errorf("search page %d failed: %w", page, err)
	}
	return &payload.Content, nil
}

// ProductData fetches full listing detail for one product id
func (c *Client) ProductData(ctx context.Context, productID int64, currency, lang string) (*ProductResponse, error) {
	reqURL := buildProductDataURL(c.config.APIEndpoint, productID, currency, lang)

	var payload ProductResponse
	if err := c.fetchJSON(ctx, reqURL, c.config.DetailTimeout, &payload); err != nil {
		return nil, fmt.Errorf("product %d detail failed: %w", productID, err)
	}
	return &payload, nil
}

// SellerReviews fetches the review summary for one seller id
func (c *Client) SellerReviews(ctx context.Context, sellerID int64, lang string) (*ReviewsResponse, error) {
	reqURL := buildReviewsURL(c.config.APIEndpoint, sellerID, lang)

	var payload ReviewsResponse
	if err := c.fetchJSON(ctx, reqURL, c.config.ReviewTimeout, &payload); err != nil {
		return nil, fmt.Errorf("seller %d reviews failed: %w", sellerID, err)
	}
	return &payload, nil
}

// CategoryPage fetches one page of a category block. The marketplace
// serves category listings as HTML, parsed into the same raw item
// shape as JSON search results. The second return reports whether the
// page had any items at all (category blocks carry no next-page flag).
func (c *Client) CategoryPage(ctx context.Context, categoryID string, page, perPage int, currency, lang string) ([]SearchItem, bool, error) {
	reqURL := buildCategoryBlockURL(c.config.MarketBaseURL, categoryID, page, perPage, currency, lang)

	body, err := c.fetchBody(ctx, reqURL, c.config.SearchTimeout)
	if err != nil {
		return nil, false, fmt.Errorf("category %s page %d failed: %w", categoryID, page, err)
	}

	items, err := parseCategoryBlock(body)
	if err != nil {
		return nil, false, fmt.Errorf("category %s page %d parse failed: %w", categoryID, page, err)
	}
	return items, len(items) > 0, nil
}

// fetchJSON retrieves and decodes one JSON endpoint with retry
func (c *Client) fetchJSON(ctx context.Context, reqURL string, timeout time.Duration, out interface{}) error {
	body, err := c.fetchBody(ctx, reqURL, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fetchBody retrieves one URL with rate limiting, a per-call timeout
// and bounded exponential-backoff retry on transient failures.
func (c *Client) fetchBody(ctx context.Context, reqURL string, timeout time.Duration) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.config.RetryDelay
			if c.debug {
				c.logger.Printf("retrying fetch after %v (attempt %d/%d): %s", delay, attempt, c.config.RetryAttempts, reqURL)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.fetchOnce(ctx, reqURL, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.config.RetryAttempts+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string, timeout time.Duration) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, url: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
