package scopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"records-manager/core/fetch"
	"records-manager/core/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned by searches while no API key is set.
var ErrNotConfigured = errors.New("scopus api key is not configured")

// APIError is a non-2xx response from the search endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scopus api error %d: %s", e.Status, e.Body)
}

// Result is one page of a search.
type Result struct {
	Query   string        `json:"query"`
	Start   int           `json:"start"`
	Total   int           `json:"total"`
	Entries []Publication `json:"entries"`
}

// Client calls the Scopus Search API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a client. The API key is checked when searching, so a client can be
// built for a server that never syncs.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = fetch.DefaultPageSize
	}
	if cfg.HardCeiling <= 0 {
		cfg.HardCeiling = fetch.DefaultCeiling
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.cfg.PageSize
}

// Ceiling returns the largest offset the client will request.
func (c *Client) Ceiling() int {
	return c.cfg.HardCeiling
}

// DefaultAffiliation returns the scope used when a search names none.
func (c *Client) DefaultAffiliation() string {
	return c.cfg.DefaultAffiliation
}

// Search fetches one page of results starting at start.
func (c *Client) Search(ctx context.Context, s Search, start, count int) (*Result, error) {
	if c.cfg.ApiKey == "" {
		return nil, ErrNotConfigured
	}
	q, err := s.Build()
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = c.cfg.PageSize
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("count", strconv.Itoa(count))
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", "-coverDate")
	params.Set("view", "STANDARD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-ELS-APIKey", c.cfg.ApiKey)
	req.Header.Set("Accept", "application/json")
	if c.cfg.InstToken != "" {
		req.Header.Set("X-ELS-Insttoken", c.cfg.InstToken)
	}

	c.logger.Debug("Fetching Scopus page", zap.String("query", q), zap.Int("start", start))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	res := &Result{Query: q, Start: start, Total: utils.ToInt(parsed.Results.Total)}
	for _, raw := range parsed.Results.Entries {
		p, ok, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Entries = append(res.Entries, p)
		}
	}
	return res, nil
}

// Pages adapts a search to the fetch controller's page primitive.
func (c *Client) Pages(s Search) fetch.PageFunc[Publication] {
	return func(ctx context.Context, offset, pageSize int) (fetch.Page[Publication], error) {
		res, err := c.Search(ctx, s, offset, pageSize)
		if err != nil {
			return fetch.Page[Publication]{}, err
		}
		return fetch.Page[Publication]{Items: res.Entries, Total: res.Total}, nil
	}
}
