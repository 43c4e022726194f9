package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
	"github.com/GTDGit/catalog_import/pkg/evershop"
)

// EverShopStore adapts the EverShop client to the store interfaces. Every
// error leaving it is classified.
type EverShopStore struct {
	client *evershop.Client
}

// NewEverShopStore creates an EverShopStore.
func NewEverShopStore(client *evershop.Client) *EverShopStore {
	return &EverShopStore{client: client}
}

// ListGroups implements TaxonomyStore.
func (s *EverShopStore) ListGroups(ctx context.Context) ([]models.AttributeGroup, error) {
	groups, err := s.client.ListAttributeGroups(ctx)
	if err != nil {
		return nil, classifyStoreError("list attribute groups", err)
	}
	out := make([]models.AttributeGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.AttributeGroup{ID: string(g.GroupID), UUID: g.UUID, Name: g.GroupName})
	}
	return out, nil
}

// FindGroupByName implements TaxonomyStore.
func (s *EverShopStore) FindGroupByName(ctx context.Context, name string) (*models.AttributeGroup, error) {
	groups, err := s.client.FindAttributeGroupsByName(ctx, name)
	if err != nil {
		return nil, classifyStoreError("find attribute group", err)
	}
	for _, g := range groups {
		if g.GroupName == name {
			return &models.AttributeGroup{ID: string(g.GroupID), UUID: g.UUID, Name: g.GroupName}, nil
		}
	}
	return nil, nil
}

// CreateGroup implements TaxonomyStore.
func (s *EverShopStore) CreateGroup(ctx context.Context, name string) (*models.AttributeGroup, error) {
	resp, err := s.client.CreateAttributeGroup(ctx, name)
	if err != nil {
		return nil, classifyStoreError("create attribute group", err)
	}
	return &models.AttributeGroup{ID: string(resp.AttributeGroupID), UUID: resp.UUID, Name: resp.GroupName}, nil
}

// RenameGroup implements TaxonomyStore.
func (s *EverShopStore) RenameGroup(ctx context.Context, uuid, name string) (*models.AttributeGroup, error) {
	resp, err := s.client.RenameAttributeGroup(ctx, uuid, name)
	if err != nil {
		return nil, groupError("rename attribute group", err)
	}
	return &models.AttributeGroup{ID: string(resp.AttributeGroupID), UUID: uuid, Name: name}, nil
}

// DeleteGroup implements TaxonomyStore.
func (s *EverShopStore) DeleteGroup(ctx context.Context, uuid string) error {
	return groupError("delete attribute group", s.client.DeleteAttributeGroup(ctx, uuid))
}

// ListAttributes implements TaxonomyStore.
func (s *EverShopStore) ListAttributes(ctx context.Context) ([]models.Attribute, error) {
	attrs, err := s.client.ListAttributes(ctx)
	if err != nil {
		return nil, classifyStoreError("list attributes", err)
	}
	out := make([]models.Attribute, 0, len(attrs))
	for i := range attrs {
		out = append(out, convertAttribute(&attrs[i]))
	}
	return out, nil
}

// FindAttributeByCode implements TaxonomyStore.
func (s *EverShopStore) FindAttributeByCode(ctx context.Context, code string) (*models.Attribute, error) {
	attrs, err := s.client.FindAttributesByCode(ctx, code)
	if err != nil {
		return nil, classifyStoreError("find attribute "+code, err)
	}
	for i := range attrs {
		if attrs[i].AttributeCode == code {
			a := convertAttribute(&attrs[i])
			return &a, nil
		}
	}
	return nil, nil
}

// CreateAttribute implements TaxonomyStore.
func (s *EverShopStore) CreateAttribute(ctx context.Context, payload *models.AttributePayload) (*models.Attribute, error) {
	resp, err := s.client.CreateAttribute(ctx, attributeRequest(payload))
	if err != nil {
		return nil, classifyStoreError("create attribute "+payload.Code, err)
	}
	return &models.Attribute{ID: string(resp.AttributeID), UUID: resp.UUID, Code: resp.AttributeCode, Name: resp.AttributeName}, nil
}

// PatchAttribute implements TaxonomyStore.
func (s *EverShopStore) PatchAttribute(ctx context.Context, id string, payload *models.AttributePayload) (*models.Attribute, error) {
	resp, err := s.client.UpdateAttribute(ctx, id, attributeRequest(payload))
	if err != nil {
		return nil, classifyStoreError("patch attribute "+payload.Code, err)
	}
	return &models.Attribute{ID: string(resp.AttributeID), UUID: resp.UUID, Code: resp.AttributeCode, Name: resp.AttributeName}, nil
}

// CreateVariantGroup implements VariantGroupStore.
func (s *EverShopStore) CreateVariantGroup(ctx context.Context, codes []string, groupID string) (*models.VariantGroup, error) {
	resp, err := s.client.CreateVariantGroup(ctx, &evershop.VariantGroupRequest{AttributeCodes: codes, AttributeGroupID: groupID})
	if err != nil {
		return nil, classifyStoreError("create variant group", err)
	}
	return &models.VariantGroup{UUID: resp.UUID, AttributeCodes: codes, AttributeGroupID: groupID}, nil
}

// AddVariantGroupMember implements VariantGroupStore.
func (s *EverShopStore) AddVariantGroupMember(ctx context.Context, variantGroupUUID, productUUID string) error {
	return classifyStoreError("add variant group member", s.client.AddVariantGroupItem(ctx, variantGroupUUID, productUUID))
}

// CreateProduct implements ProductStore.
func (s *EverShopStore) CreateProduct(ctx context.Context, payload *models.ProductPayload) (string, error) {
	resp, err := s.client.CreateProduct(ctx, payload)
	if err != nil {
		return "", classifyStoreError("create product "+payload.SKU, err)
	}
	return resp.UUID, nil
}

// DeleteProduct implements ProductStore.
func (s *EverShopStore) DeleteProduct(ctx context.Context, uuid string) error {
	return classifyStoreError("delete product", s.client.DeleteProduct(ctx, uuid))
}

// ListCategories implements CategorySource.
func (s *EverShopStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.client.ListCategories(ctx)
	if err != nil {
		return nil, classifyStoreError("list categories", err)
	}
	out := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, models.Category{ID: string(c.CategoryID), UUID: c.UUID, Name: c.Name, Status: bool(c.Status)})
	}
	return out, nil
}

// groupError reports a missing group as utils.ErrGroupNotFound.
func groupError(op string, err error) error {
	var apiErr *evershop.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, utils.ErrGroupNotFound)
	}
	return classifyStoreError(op, err)
}

func convertAttribute(a *evershop.Attribute) models.Attribute {
	attr := models.Attribute{
		ID:                string(a.AttributeID),
		UUID:              a.UUID,
		Code:              a.AttributeCode,
		Name:              a.AttributeName,
		Type:              a.Type,
		IsRequired:        bool(a.IsRequired),
		DisplayOnFrontend: bool(a.DisplayOnFrontend),
		IsFilterable:      bool(a.IsFilterable),
	}
	for _, o := range a.Options {
		attr.Options = append(attr.Options, models.AttributeOption{ID: string(o.AttributeOptionID), UUID: o.UUID, Text: o.OptionText})
	}
	for _, g := range a.Groups.Items {
		attr.Groups = append(attr.Groups, string(g.GroupID))
	}
	return attr
}

func attributeRequest(p *models.AttributePayload) *evershop.AttributeRequest {
	req := &evershop.AttributeRequest{
		AttributeName:     p.Name,
		AttributeCode:     p.Code,
		Type:              p.Type,
		IsRequired:        boolFlag(p.IsRequired),
		DisplayOnFrontend: boolFlag(p.DisplayOnFrontend),
		IsFilterable:      boolFlag(p.IsFilterable),
		Groups:            p.Groups,
		Options:           make([]evershop.OptionRequest, 0, len(p.Options)),
	}
	for _, o := range p.Options {
		req.Options = append(req.Options, evershop.OptionRequest{OptionID: o.ID, OptionText: o.Text})
	}
	return req
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
