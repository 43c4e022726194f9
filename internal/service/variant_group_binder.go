package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/cache"
	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// ErrBindingNotPersisted is returned with a valid variant group uuid when the
// group was created but its binding could not be recorded.
var ErrBindingNotPersisted = errors.New("variant group binding not persisted")

// BindingRepository persists the variant group created for each catalog
// product. FindByProduct returns (nil, nil) when none exists.
type BindingRepository interface {
	FindByProduct(externalProductID string) (*models.VariantGroupBinding, error)
	Create(binding *models.VariantGroupBinding) error
}

// MemberLookup lists the submitted variants of a catalog product.
type MemberLookup interface {
	ListByProduct(externalProductID string) ([]models.SubmittedVariant, error)
}

// VariantGroupBinder creates at most one variant group per catalog product.
type VariantGroupBinder struct {
	store    VariantGroupStore
	bindings BindingRepository
	members  MemberLookup
	locker   cache.Locker
	pending  *unrecorded[*models.VariantGroupBinding]
}

// NewVariantGroupBinder creates a VariantGroupBinder.
func NewVariantGroupBinder(store VariantGroupStore, bindings BindingRepository, members MemberLookup, locker cache.Locker) *VariantGroupBinder {
	return &VariantGroupBinder{
		store:    store,
		bindings: bindings,
		members:  members,
		locker:   locker,
		pending:  newUnrecorded[*models.VariantGroupBinding](),
	}
}

// Bind returns the variant group uuid of p, creating the group over codes in
// groupID when p has none yet. A group already known from an unrecorded
// create or from the memberships of p is bound instead of creating another.
// The create itself is never retried.
func (b *VariantGroupBinder) Bind(ctx context.Context, p *models.ExternalProduct, groupID string, codes []string) (string, error) {
	unlock, err := b.locker.Lock(ctx, "variant-group:"+p.ID)
	if err != nil {
		return "", fmt.Errorf("lock variant group %s: %w", p.ID, err)
	}
	defer unlock()

	existing, err := b.bindings.FindByProduct(p.ID)
	if err != nil {
		return "", fmt.Errorf("load variant group binding: %w", err)
	}
	if existing != nil {
		if existing.AttributeCodes != strings.Join(codes, ",") {
			log.Warn().
				Str("product_id", p.ID).
				Str("bound_codes", existing.AttributeCodes).
				Strs("codes", codes).
				Msg("variant group is immutable, keeping existing axes")
		}
		return existing.VariantGroupUUID, nil
	}

	if len(codes) == 0 {
		return "", fmt.Errorf("product %s: %w: no attribute codes to bind", p.ID, utils.ErrValidation)
	}

	binding, ok := b.pending.get(p.ID)
	if !ok {
		binding, err = b.fromMembers(p.ID, groupID, codes)
		if err != nil {
			return "", err
		}
	}
	if binding == nil {
		vg, err := b.store.CreateVariantGroup(ctx, codes, groupID)
		if err != nil {
			return "", err
		}
		log.Info().Str("product_id", p.ID).Str("variant_group", vg.UUID).Strs("codes", codes).Msg("variant group created")
		binding = newBinding(p.ID, vg.UUID, groupID, codes)
	}

	if err := record(ctx, "persist variant group binding", func() error { return b.bindings.Create(binding) }); err != nil {
		b.pending.put(p.ID, binding)
		log.Error().Err(err).Str("product_id", p.ID).Str("variant_group", binding.VariantGroupUUID).Msg("failed to persist variant group binding")
		return binding.VariantGroupUUID, fmt.Errorf("%w: %v", ErrBindingNotPersisted, err)
	}
	b.pending.forget(p.ID)
	return binding.VariantGroupUUID, nil
}

// fromMembers rebuilds the binding of a product whose variants already joined a
// variant group. It returns nil when none did.
func (b *VariantGroupBinder) fromMembers(productID, groupID string, codes []string) (*models.VariantGroupBinding, error) {
	rows, err := b.members.ListByProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("load submitted variants: %w", err)
	}
	for _, r := range rows {
		if r.IsMember() {
			log.Warn().Str("product_id", productID).Str("variant_group", *r.VariantGroupUUID).Msg("rebinding variant group found on submitted variants")
			return newBinding(productID, *r.VariantGroupUUID, groupID, codes), nil
		}
	}
	return nil, nil
}

func newBinding(productID, vgUUID, groupID string, codes []string) *models.VariantGroupBinding {
	return &models.VariantGroupBinding{
		ExternalProductID: productID,
		VariantGroupUUID:  vgUUID,
		AttributeGroupID:  groupID,
		AttributeCodes:    strings.Join(codes, ","),
		CreatedAt:         time.Now().UTC(),
	}
}
