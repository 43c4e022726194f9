package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/service"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// ImportRunner starts import runs and reads their reports.
type ImportRunner interface {
	Start(opts service.RunOptions) (*models.ImportRun, error)
	GetRun(id string) (*models.ImportRun, error)
	ListRuns(page, limit int) ([]models.ImportRun, int, error)
}

// ImportHandler handles import run endpoints.
type ImportHandler struct {
	imports ImportRunner
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(imports ImportRunner) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// StartImport handles POST /v1/imports. The body is optional; an empty body
// imports the whole catalog.
func (h *ImportHandler) StartImport(c *gin.Context) {
	var opts service.RunOptions
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if opts.Trigger == "" {
		opts.Trigger = "api"
	}

	run, err := h.imports.Start(opts)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to start import")
		return
	}
	utils.Success(c, http.StatusAccepted, "Import started", run)
}

// ListImports handles GET /v1/imports
func (h *ImportHandler) ListImports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, total, err := h.imports.ListRuns(page, limit)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to retrieve imports")
		return
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Imports retrieved", runs, page, limit, total)
}

// GetImport handles GET /v1/imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	run, err := h.imports.GetRun(c.Param("id"))
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to retrieve import")
		return
	}
	utils.Success(c, http.StatusOK, "Import retrieved", run)
}
