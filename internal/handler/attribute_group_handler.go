package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// GroupManager manages store attribute groups.
type GroupManager interface {
	List(ctx context.Context) ([]models.AttributeGroup, error)
	Create(ctx context.Context, name string) (*models.AttributeGroup, error)
	Rename(ctx context.Context, uuid, name string) (*models.AttributeGroup, error)
	Delete(ctx context.Context, uuid string) error
}

// AttributeGroupHandler handles attribute group endpoints.
type AttributeGroupHandler struct {
	groups GroupManager
}

// NewAttributeGroupHandler constructs an AttributeGroupHandler.
func NewAttributeGroupHandler(groups GroupManager) *AttributeGroupHandler {
	return &AttributeGroupHandler{groups: groups}
}

type groupRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListGroups handles GET /v1/attribute-groups
func (h *AttributeGroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to retrieve attribute groups")
		return
	}
	if groups == nil {
		groups = []models.AttributeGroup{}
	}
	utils.Success(c, http.StatusOK, "Attribute groups retrieved", groups)
}

// CreateGroup handles POST /v1/attribute-groups
func (h *AttributeGroupHandler) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "MISSING_FIELD", "name is required")
		return
	}
	g, err := h.groups.Create(c.Request.Context(), req.Name)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to create attribute group")
		return
	}
	utils.Success(c, http.StatusCreated, "Attribute group created", g)
}

// RenameGroup handles PATCH /v1/attribute-groups/:uuid
func (h *AttributeGroupHandler) RenameGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "MISSING_FIELD", "name is required")
		return
	}
	g, err := h.groups.Rename(c.Request.Context(), c.Param("uuid"), req.Name)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to rename attribute group")
		return
	}
	utils.Success(c, http.StatusOK, "Attribute group renamed", g)
}

// DeleteGroup handles DELETE /v1/attribute-groups/:uuid
func (h *AttributeGroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		utils.ErrorFrom(c, err, "Failed to delete attribute group")
		return
	}
	utils.Success(c, http.StatusOK, "Attribute group deleted", nil)
}
