package printify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsFollowsPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shops/42/products.json", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		resp := ProductsPage{CurrentPage: 1, LastPage: 2, Data: []Product{{ID: "p1", Title: "Tee"}}}
		if page == "2" {
			resp = ProductsPage{CurrentPage: 2, LastPage: 2, Data: []Product{{
				ID:       "p2",
				Title:    "Hoodie",
				Variants: []Variant{{ID: 11, Price: 2599, Options: []int64{1, 2}, IsEnabled: true}},
			}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", ShopID: "42"})
	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[1].ID)
	assert.Equal(t, int64(2599), products[1].Variants[0].Price)
	assert.Equal(t, []int64{1, 2}, products[1].Variants[0].Options)
}

func TestListProductsReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", ShopID: "42"})
	_, err := c.ListProducts(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())
}

func TestCreateOrderPostsPayload(t *testing.T) {
	var got OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shops/42/orders.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"order-1"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", ShopID: "42"})
	resp, err := c.CreateOrder(context.Background(), &OrderRequest{
		ExternalID: "100",
		LineItems:  []LineItem{{ProductID: "p1", VariantID: 11, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "order-1", resp.ID)
	assert.Equal(t, "100", got.ExternalID)
	assert.Equal(t, int64(11), got.LineItems[0].VariantID)
}
