package evershop

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexID decodes an identifier sent either as a JSON number or a string.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// FlexBool decodes a flag sent as a JSON bool or as 0/1.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(b []byte) error {
	switch s := string(bytes.Trim(bytes.TrimSpace(b), `"`)); s {
	case "true":
		*f = true
	case "false", "null", "":
		*f = false
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// FilterInput is a GraphQL collection filter.
type FilterInput struct {
	Key       string `json:"key"`
	Operation string `json:"operation"`
	Value     string `json:"value"`
}

// AttributeGroup is an attribute group as returned by the store.
type AttributeGroup struct {
	UUID      string `json:"uuid"`
	GroupID   FlexID `json:"groupId"`
	GroupName string `json:"groupName"`
}

// AttributeOption is an attribute option as returned by the store.
type AttributeOption struct {
	AttributeOptionID FlexID `json:"attributeOptionId"`
	UUID              string `json:"uuid"`
	OptionText        string `json:"optionText"`
}

// Attribute is an attribute as returned by the store.
type Attribute struct {
	UUID              string            `json:"uuid"`
	AttributeID       FlexID            `json:"attributeId"`
	AttributeName     string            `json:"attributeName"`
	AttributeCode     string            `json:"attributeCode"`
	Type              string            `json:"type"`
	IsRequired        FlexBool          `json:"isRequired"`
	DisplayOnFrontend FlexBool          `json:"displayOnFrontend"`
	IsFilterable      FlexBool          `json:"isFilterable"`
	Options           []AttributeOption `json:"options"`
	Groups            struct {
		Items []struct {
			GroupID FlexID `json:"groupId"`
		} `json:"items"`
	} `json:"groups"`
}

// Category is a category as returned by the store.
type Category struct {
	CategoryID FlexID   `json:"categoryId"`
	UUID       string   `json:"uuid"`
	Name       string   `json:"name"`
	Status     FlexBool `json:"status"`
}

// GroupRequest creates or renames an attribute group.
type GroupRequest struct {
	GroupName string `json:"group_name"`
}

// GroupResponse is the created attribute group.
type GroupResponse struct {
	AttributeGroupID FlexID `json:"attribute_group_id"`
	UUID             string `json:"uuid"`
	GroupName        string `json:"group_name"`
}

// OptionRequest is an attribute option in a create or patch body. Existing
// options carry their id so the store keeps them in place.
type OptionRequest struct {
	OptionID   string `json:"option_id,omitempty"`
	OptionText string `json:"option_text"`
}

// AttributeRequest creates or patches an attribute.
type AttributeRequest struct {
	AttributeName     string          `json:"attribute_name"`
	AttributeCode     string          `json:"attribute_code"`
	Type              string          `json:"type"`
	IsRequired        int             `json:"is_required"`
	DisplayOnFrontend int             `json:"display_on_frontend"`
	IsFilterable      int             `json:"is_filterable"`
	Groups            []string        `json:"groups"`
	Options           []OptionRequest `json:"options"`
}

// AttributeResponse is the created or patched attribute.
type AttributeResponse struct {
	AttributeID   FlexID `json:"attribute_id"`
	UUID          string `json:"uuid"`
	AttributeCode string `json:"attribute_code"`
	AttributeName string `json:"attribute_name"`
}

// VariantGroupRequest creates a variant group.
type VariantGroupRequest struct {
	AttributeCodes   []string `json:"attribute_codes"`
	AttributeGroupID string   `json:"attribute_group_id"`
}

// VariantGroupResponse is the created variant group.
type VariantGroupResponse struct {
	UUID string `json:"uuid"`
}

// VariantGroupItemRequest attaches a product to a variant group.
type VariantGroupItemRequest struct {
	ProductID string `json:"product_id"`
}

// ProductResponse is the created product.
type ProductResponse struct {
	UUID      string `json:"uuid"`
	ProductID FlexID `json:"product_id"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}
