package printify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Printify API base URL.
	DefaultBaseURL = "https://api.printify.com/v1"

	pageLimit = 50
)

// APIError is a non-2xx answer from the Printify API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("printify: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	ShopID    string
	RateLimit float64
	Debug     bool
}

// Client is a minimal HTTP client for the Printify shop API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	shopID     string
	debug      bool
}

// NewClient constructs a new Printify client with sane defaults.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		baseURL:    base,
		apiKey:     cfg.APIKey,
		shopID:     cfg.ShopID,
		debug:      cfg.Debug,
	}
}

// ListProducts retrieves every product of the shop, following pagination.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageLimit))

		var resp ProductsPage
		path := fmt.Sprintf("/shops/%s/products.json?%s", url.PathEscape(c.shopID), q.Encode())
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Data...)
		if resp.LastPage <= page || len(resp.Data) == 0 {
			return out, nil
		}
	}
}

// CreateOrder submits an order for production.
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	path := fmt.Sprintf("/shops/%s/orders.json", url.PathEscape(c.shopID))
	if err := c.doRequest(ctx, http.MethodPost, path, order, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doRequest performs an authenticated JSON request and decodes the answer into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.debug {
		ev := log.Debug().Str("method", method).Str("endpoint", c.baseURL+path)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[PRINTIFY] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[PRINTIFY] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
