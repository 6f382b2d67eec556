package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type familyStore interface {
	kindResolver
	CreateParent(ctx context.Context, parent *models.Parent) error
	CreateChild(ctx context.Context, child *models.Child) error
	FindParent(ctx context.Context, id string) (*models.Parent, error)
	FindChild(ctx context.Context, id string) (*models.Child, error)
	ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, int, error)
	ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, int, error)
	LinkChild(ctx context.Context, link *models.FamilyLink) (bool, error)
	ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error)
	ParentsOf(ctx context.Context, childID string) ([]models.Parent, error)
}

// CreatePersonRequest is the payload for creating a parent, child or student.
type CreatePersonRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// AddChildRequest links a child to a parent.
type AddChildRequest struct {
	ChildID string `json:"child_id" validate:"required"`
}

// FamilyService manages parents, children and the links between them.
type FamilyService struct {
	store     familyStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFamilyService constructs FamilyService.
func NewFamilyService(store familyStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FamilyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyService{store: store, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// CreateParent registers a parent.
func (s *FamilyService) CreateParent(ctx context.Context, req CreatePersonRequest) (*models.Parent, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	parent := &models.Parent{Name: req.Name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateParent(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// CreateChild registers a child.
func (s *FamilyService) CreateChild(ctx context.Context, req CreatePersonRequest) (*models.Child, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid child payload")
	}
	child := &models.Child{Name: req.Name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateChild(ctx, child); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create child")
	}
	return child, nil
}

// GetParent returns a parent by id.
func (s *FamilyService) GetParent(ctx context.Context, id string) (*models.Parent, error) {
	if err := expectKind(ctx, s.store, s.metrics, id, models.KindParent, "id"); err != nil {
		return nil, err
	}
	parent, err := s.store.FindParent(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "parent", "failed to load parent")
	}
	return parent, nil
}

// GetChild returns a child by id.
func (s *FamilyService) GetChild(ctx context.Context, id string) (*models.Child, error) {
	if err := expectKind(ctx, s.store, s.metrics, id, models.KindChild, "id"); err != nil {
		return nil, err
	}
	child, err := s.store.FindChild(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "child", "failed to load child")
	}
	return child, nil
}

// ListParents returns parents with pagination metadata.
func (s *FamilyService) ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, *models.Pagination, error) {
	parents, total, err := s.store.ListParents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, paginate(filter, total), nil
}

// ListChildren returns children with pagination metadata.
func (s *FamilyService) ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, *models.Pagination, error) {
	children, total, err := s.store.ListChildren(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, paginate(filter, total), nil
}

// AddChild links a child to a parent. Both ids are checked for kind before anything is
// written; linking an existing pair again is a no-op reported with Created=false.
func (s *FamilyService) AddChild(ctx context.Context, parentID string, req AddChildRequest) (*models.FamilyLinkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add child payload")
	}
	if err := expectKind(ctx, s.store, s.metrics, parentID, models.KindParent, "parent_id"); err != nil {
		return nil, err
	}
	if err := expectKind(ctx, s.store, s.metrics, req.ChildID, models.KindChild, "child_id"); err != nil {
		return nil, err
	}

	link := &models.FamilyLink{ParentID: parentID, ChildID: req.ChildID, LinkedAt: s.now().UTC()}
	created, err := s.store.LinkChild(ctx, link)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link child")
	}
	s.metrics.RecordLink("family", created)
	s.logger.Info("child linked",
		zap.String("parent_id", parentID),
		zap.String("child_id", req.ChildID),
		zap.Bool("created", created),
	)
	return &models.FamilyLinkResult{FamilyLink: *link, Created: created}, nil
}

// ChildrenOf returns the children linked to a parent.
func (s *FamilyService) ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error) {
	if err := expectKind(ctx, s.store, s.metrics, parentID, models.KindParent, "parent_id"); err != nil {
		return nil, err
	}
	children, err := s.store.ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children of parent")
	}
	return children, nil
}

// ParentsOf returns the parents linked to a child.
func (s *FamilyService) ParentsOf(ctx context.Context, childID string) ([]models.Parent, error) {
	if err := expectKind(ctx, s.store, s.metrics, childID, models.KindChild, "child_id"); err != nil {
		return nil, err
	}
	parents, err := s.store.ParentsOf(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents of child")
	}
	return parents, nil
}
