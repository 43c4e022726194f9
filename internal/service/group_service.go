package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// GroupService manages store attribute groups on behalf of the operator.
type GroupService struct {
	store TaxonomyStore
}

// NewGroupService creates a GroupService.
func NewGroupService(store TaxonomyStore) *GroupService {
	return &GroupService{store: store}
}

// List returns every attribute group.
func (s *GroupService) List(ctx context.Context) ([]models.AttributeGroup, error) {
	return s.store.ListGroups(ctx)
}

// Create creates a group. Creating a name that already exists is a conflict.
func (s *GroupService) Create(ctx context.Context, name string) (*models.AttributeGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", utils.ErrValidation)
	}
	existing, err := s.store.FindGroupByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: group %q already exists", utils.ErrConflict, name)
	}
	g, err := s.store.CreateGroup(ctx, name)
	if err != nil {
		return nil, err
	}
	log.Info().Str("group", name).Str("uuid", g.UUID).Msg("attribute group created")
	return g, nil
}

// Rename renames the group identified by uuid.
func (s *GroupService) Rename(ctx context.Context, uuid, name string) (*models.AttributeGroup, error) {
	name = strings.TrimSpace(name)
	if uuid == "" || name == "" {
		return nil, fmt.Errorf("%w: group uuid and name are required", utils.ErrValidation)
	}
	g, err := s.store.RenameGroup(ctx, uuid, name)
	if err != nil {
		return nil, err
	}
	log.Info().Str("uuid", uuid).Str("group", name).Msg("attribute group renamed")
	return g, nil
}

// Delete deletes the group identified by uuid.
func (s *GroupService) Delete(ctx context.Context, uuid string) error {
	if uuid == "" {
		return fmt.Errorf("%w: group uuid is required", utils.ErrValidation)
	}
	if err := s.store.DeleteGroup(ctx, uuid); err != nil {
		return err
	}
	log.Info().Str("uuid", uuid).Msg("attribute group deleted")
	return nil
}
