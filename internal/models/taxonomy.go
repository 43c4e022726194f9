package models

// AttributeGroup is a named set of attributes in the store.
type AttributeGroup struct {
	ID   string `json:"attribute_group_id"`
	UUID string `json:"uuid"`
	Name string `json:"group_name"`
}

// AttributeOption is one selectable value of a store attribute.
type AttributeOption struct {
	ID   string `json:"option_id,omitempty"`
	UUID string `json:"uuid,omitempty"`
	Text string `json:"option_text"`
}

// Attribute is the store analogue of a catalog option axis.
type Attribute struct {
	ID                string            `json:"attribute_id"`
	UUID              string            `json:"uuid"`
	Code              string            `json:"attribute_code"`
	Name              string            `json:"attribute_name"`
	Type              string            `json:"type"`
	Options           []AttributeOption `json:"options"`
	IsRequired        bool              `json:"is_required"`
	DisplayOnFrontend bool              `json:"display_on_frontend"`
	IsFilterable      bool              `json:"is_filterable"`
	Groups            []string          `json:"groups"`
}

// HasOptionText reports whether the attribute already carries text.
func (a *Attribute) HasOptionText(text string) bool {
	for _, o := range a.Options {
		if o.Text == text {
			return true
		}
	}
	return false
}

// AttributePayload is the body of an attribute create or patch.
type AttributePayload struct {
	Name              string            `json:"attribute_name"`
	Code              string            `json:"attribute_code"`
	Type              string            `json:"type"`
	Options           []AttributeOption `json:"options"`
	IsRequired        bool              `json:"is_required"`
	DisplayOnFrontend bool              `json:"display_on_frontend"`
	IsFilterable      bool              `json:"is_filterable"`
	Groups            []string          `json:"groups"`
}

// VariantGroup clusters the sibling products of one catalog product.
type VariantGroup struct {
	UUID             string   `json:"uuid"`
	AttributeCodes   []string `json:"attribute_codes"`
	AttributeGroupID string   `json:"attribute_group_id"`
}
