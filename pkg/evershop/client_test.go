package evershop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIToken: "tok"})
}

func TestListAttributesDecodesMixedTypes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/graphql", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "attributes(filters: $filters)")

		_, _ = io.WriteString(w, `{"data":{"attributes":{"items":[{
			"uuid":"a-1","attributeId":7,"attributeCode":"COLOR","attributeName":"COLOR",
			"type":"select","isRequired":1,"displayOnFrontend":"0","isFilterable":true,
			"groups":{"items":[{"groupId":3}]},
			"options":[{"attributeOptionId":21,"uuid":"o-1","optionText":"Red"}]}]}}}`)
	})

	attrs, err := c.ListAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, attrs, 1)

	a := attrs[0]
	assert.Equal(t, FlexID("7"), a.AttributeID)
	assert.True(t, bool(a.IsRequired))
	assert.False(t, bool(a.DisplayOnFrontend))
	assert.True(t, bool(a.IsFilterable))
	assert.Equal(t, FlexID("3"), a.Groups.Items[0].GroupID)
	assert.Equal(t, FlexID("21"), a.Options[0].AttributeOptionID)
	assert.Equal(t, "Red", a.Options[0].OptionText)
}

func TestFindAttributeGroupsByNameSendsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string `json:"query"`
			Variables struct {
				Filters []FilterInput `json:"filters"`
			} `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "attributeGroups(filters: $filters)")
		assert.Equal(t, []FilterInput{{Key: "name", Operation: "eq", Value: "12345"}}, req.Variables.Filters)
		_, _ = io.WriteString(w, `{"data":{"groups":{"items":[{"uuid":"g-9","groupId":9,"groupName":"12345"}]}}}`)
	})

	groups, err := c.FindAttributeGroupsByName(context.Background(), "12345")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, FlexID("9"), groups[0].GroupID)
}

func TestFindAttributesByCodeSendsFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				Filters []FilterInput `json:"filters"`
			} `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []FilterInput{{Key: "code", Operation: "eq", Value: "COLOR"}}, req.Variables.Filters)
		_, _ = io.WriteString(w, `{"data":{"attributes":{"items":[]}}}`)
	})

	attrs, err := c.FindAttributesByCode(context.Background(), "COLOR")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestQuerySurfacesGraphQLErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[{"message":"Unknown field"}]}`)
	})

	_, err := c.ListAttributeGroups(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Unknown field", apiErr.Message)
}

func TestCreateAttributeGroupUnwrapsData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/attributeGroups", r.URL.Path)
		var body GroupRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345", body.GroupName)
		_, _ = io.WriteString(w, `{"data":{"attribute_group_id":9,"uuid":"g-9","group_name":"12345"}}`)
	})

	g, err := c.CreateAttributeGroup(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, FlexID("9"), g.AttributeGroupID)
	assert.Equal(t, "g-9", g.UUID)
}

func TestAddVariantGroupItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/variantGroups/vg-1/items", r.URL.Path)
		var body VariantGroupItemRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "prod-1", body.ProductID)
		_, _ = io.WriteString(w, `{"data":{}}`)
	})

	require.NoError(t, c.AddVariantGroupItem(context.Background(), "vg-1", "prod-1"))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		conflict     bool
		temporary    bool
		unauthorized bool
	}{
		{"conflict status", http.StatusConflict, `{"error":{"status":409,"message":"dup"}}`, true, false, false},
		{"duplicate message", http.StatusBadRequest, `{"error":{"status":400,"message":"Attribute code already exists"}}`, true, false, false},
		{"validation", http.StatusBadRequest, `{"error":{"status":400,"message":"name is required"}}`, false, false, false},
		{"server error", http.StatusServiceUnavailable, `oops`, false, true, false},
		{"forbidden", http.StatusForbidden, ``, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.CreateProduct(context.Background(), map[string]string{"name": "x"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.conflict, apiErr.Conflict())
			assert.Equal(t, tt.temporary, apiErr.Temporary())
			assert.Equal(t, tt.unauthorized, apiErr.Unauthorized())
		})
	}
}

func TestFlexIDAcceptsNull(t *testing.T) {
	var v struct {
		ID FlexID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &v))
	assert.Equal(t, FlexID(""), v.ID)
}
