package evershop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// APIError is a non-2xx answer from the store API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evershop: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Conflict reports whether the store rejected a create because the record exists.
func (e *APIError) Conflict() bool {
	if e.StatusCode == http.StatusConflict {
		return true
	}
	return (e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity) &&
		strings.Contains(strings.ToLower(e.Message), "already exist")
}

// Unauthorized reports whether the store refused the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	GraphQLPath string
	APIToken    string
	RateLimit   float64
	Timeout     time.Duration
	Debug       bool
}

// Client talks to the store: reads through GraphQL, writes through REST.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	graphQLPath string
	token       string
	debug       bool
}

// NewClient constructs a store client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	gql := cfg.GraphQLPath
	if gql == "" {
		gql = "/api/graphql"
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, 1),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		graphQLPath: gql,
		token:       cfg.APIToken,
		debug:       cfg.Debug,
	}
}

// ListAttributeGroups returns every attribute group.
func (c *Client) ListAttributeGroups(ctx context.Context) ([]AttributeGroup, error) {
	return c.attributeGroups(ctx, []FilterInput{})
}

// FindAttributeGroupsByName returns the attribute groups named name.
func (c *Client) FindAttributeGroupsByName(ctx context.Context, name string) ([]AttributeGroup, error) {
	return c.attributeGroups(ctx, []FilterInput{{Key: "name", Operation: "eq", Value: name}})
}

func (c *Client) attributeGroups(ctx context.Context, filters []FilterInput) ([]AttributeGroup, error) {
	var data struct {
		Groups struct {
			Items []AttributeGroup `json:"items"`
		} `json:"groups"`
	}
	if err := c.query(ctx, attributeGroupQuery, filters, &data); err != nil {
		return nil, err
	}
	return data.Groups.Items, nil
}

// CreateAttributeGroup creates a group named name.
func (c *Client) CreateAttributeGroup(ctx context.Context, name string) (*GroupResponse, error) {
	var resp GroupResponse
	if err := c.rest(ctx, http.MethodPost, "/api/attributeGroups", GroupRequest{GroupName: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RenameAttributeGroup renames the group identified by uuid.
func (c *Client) RenameAttributeGroup(ctx context.Context, uuid, name string) (*GroupResponse, error) {
	var resp GroupResponse
	if err := c.rest(ctx, http.MethodPatch, "/api/attributeGroups/"+url.PathEscape(uuid), GroupRequest{GroupName: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAttributeGroup deletes the group identified by uuid.
func (c *Client) DeleteAttributeGroup(ctx context.Context, uuid string) error {
	return c.rest(ctx, http.MethodDelete, "/api/attributeGroups/"+url.PathEscape(uuid), nil, nil)
}

// ListAttributes returns every attribute with its options.
func (c *Client) ListAttributes(ctx context.Context) ([]Attribute, error) {
	return c.attributes(ctx, []FilterInput{})
}

// FindAttributesByCode returns the attributes whose code is code.
func (c *Client) FindAttributesByCode(ctx context.Context, code string) ([]Attribute, error) {
	return c.attributes(ctx, []FilterInput{{Key: "code", Operation: "eq", Value: code}})
}

func (c *Client) attributes(ctx context.Context, filters []FilterInput) ([]Attribute, error) {
	var data struct {
		Attributes struct {
			Items []Attribute `json:"items"`
		} `json:"attributes"`
	}
	if err := c.query(ctx, attributeQuery, filters, &data); err != nil {
		return nil, err
	}
	return data.Attributes.Items, nil
}

// CreateAttribute creates an attribute.
func (c *Client) CreateAttribute(ctx context.Context, req *AttributeRequest) (*AttributeResponse, error) {
	var resp AttributeResponse
	if err := c.rest(ctx, http.MethodPost, "/api/attributes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateAttribute patches the attribute identified by id.
func (c *Client) UpdateAttribute(ctx context.Context, id string, req *AttributeRequest) (*AttributeResponse, error) {
	var resp AttributeResponse
	if err := c.rest(ctx, http.MethodPatch, "/api/attributes/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var data struct {
		Categories struct {
			Items []Category `json:"items"`
		} `json:"categories"`
	}
	if err := c.query(ctx, categoryQuery, []FilterInput{}, &data); err != nil {
		return nil, err
	}
	return data.Categories.Items, nil
}

// CreateVariantGroup creates a variant group over the given attribute codes.
func (c *Client) CreateVariantGroup(ctx context.Context, req *VariantGroupRequest) (*VariantGroupResponse, error) {
	var resp VariantGroupResponse
	if err := c.rest(ctx, http.MethodPost, "/api/variantGroups", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddVariantGroupItem attaches a product to a variant group.
func (c *Client) AddVariantGroupItem(ctx context.Context, variantGroupUUID, productUUID string) error {
	path := "/api/variantGroups/" + url.PathEscape(variantGroupUUID) + "/items"
	return c.rest(ctx, http.MethodPost, path, VariantGroupItemRequest{ProductID: productUUID}, nil)
}

// CreateProduct creates a product from an arbitrary JSON-encodable payload.
func (c *Client) CreateProduct(ctx context.Context, payload any) (*ProductResponse, error) {
	var resp ProductResponse
	if err := c.rest(ctx, http.MethodPost, "/api/products", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProduct deletes the product identified by uuid.
func (c *Client) DeleteProduct(ctx context.Context, uuid string) error {
	return c.rest(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(uuid), nil, nil)
}

// query runs a GraphQL query and decodes its data into result.
func (c *Client) query(ctx context.Context, q string, filters []FilterInput, result any) error {
	body := graphQLRequest{Query: q, Variables: map[string]any{"filters": filters}}
	raw, err := c.do(ctx, http.MethodPost, c.graphQLPath, body)
	if err != nil {
		return err
	}
	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return &APIError{StatusCode: http.StatusBadRequest, Message: resp.Errors[0].Message}
	}
	if err := json.Unmarshal(resp.Data, result); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// rest performs a REST call; the store wraps successful payloads in "data".
func (c *Client) rest(ctx context.Context, method, path string, body any, result any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.debug {
		ev := log.Debug().Str("method", method).Str("endpoint", c.baseURL+path)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[EVERSHOP] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			Int("bytes", len(respBody)).
			Msg("[EVERSHOP] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
	}
	return respBody, nil
}

// errorMessage extracts the store's error message, falling back to the HTTP status text.
func errorMessage(body []byte, status string) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 512 {
		return s
	}
	return status
}
