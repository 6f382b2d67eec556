package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

type familyService interface {
	CreateParent(ctx context.Context, req service.CreatePersonRequest) (*models.Parent, error)
	CreateChild(ctx context.Context, req service.CreatePersonRequest) (*models.Child, error)
	GetParent(ctx context.Context, id string) (*models.Parent, error)
	GetChild(ctx context.Context, id string) (*models.Child, error)
	ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, *models.Pagination, error)
	ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, *models.Pagination, error)
	AddChild(ctx context.Context, parentID string, req service.AddChildRequest) (*models.FamilyLinkResult, error)
	ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error)
	ParentsOf(ctx context.Context, childID string) ([]models.Parent, error)
}

// FamilyHandler exposes parent and child endpoints.
type FamilyHandler struct {
	family familyService
}

// NewFamilyHandler constructs FamilyHandler.
func NewFamilyHandler(family familyService) *FamilyHandler {
	return &FamilyHandler{family: family}
}

// CreateParent godoc
// @Summary Create parent
// @Tags Family
// @Accept json
// @Produce json
// @Param payload body service.CreatePersonRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /parents [post]
func (h *FamilyHandler) CreateParent(c *gin.Context) {
	var req service.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	parent, err := h.family.CreateParent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// ListParents godoc
// @Summary List parents
// @Tags Family
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /parents [get]
func (h *FamilyHandler) ListParents(c *gin.Context) {
	parents, pagination, err := h.family.ListParents(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, pagination)
}

// GetParent godoc
// @Summary Get parent
// @Tags Family
// @Produce json
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /parents/{id} [get]
func (h *FamilyHandler) GetParent(c *gin.Context) {
	parent, err := h.family.GetParent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// AddChild godoc
// @Summary Link a child to a parent
// @Description Returns 201 when a new link is recorded and 200 when the pair was already linked.
// @Tags Family
// @Accept json
// @Produce json
// @Param id path string true "Parent ID"
// @Param payload body service.AddChildRequest true "Child reference"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /parents/{id}/children [post]
func (h *FamilyHandler) AddChild(c *gin.Context) {
	var req service.AddChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.family.AddChild(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if link.Created {
		response.Created(c, link)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// ChildrenOf godoc
// @Summary List children of a parent
// @Tags Family
// @Produce json
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Router /parents/{id}/children [get]
func (h *FamilyHandler) ChildrenOf(c *gin.Context) {
	children, err := h.family.ChildrenOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, nil)
}

// CreateChild godoc
// @Summary Create child
// @Tags Family
// @Accept json
// @Produce json
// @Param payload body service.CreatePersonRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /children [post]
func (h *FamilyHandler) CreateChild(c *gin.Context) {
	var req service.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	child, err := h.family.CreateChild(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// ListChildren godoc
// @Summary List children
// @Tags Family
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /children [get]
func (h *FamilyHandler) ListChildren(c *gin.Context) {
	children, pagination, err := h.family.ListChildren(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, pagination)
}

// GetChild godoc
// @Summary Get child
// @Tags Family
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /children/{id} [get]
func (h *FamilyHandler) GetChild(c *gin.Context) {
	child, err := h.family.GetChild(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child, nil)
}

// ParentsOf godoc
// @Summary List parents of a child
// @Tags Family
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /children/{id}/parents [get]
func (h *FamilyHandler) ParentsOf(c *gin.Context) {
	parents, err := h.family.ParentsOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parents, nil)
}
