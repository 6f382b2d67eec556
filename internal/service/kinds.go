package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type kindResolver interface {
	KindOf(ctx context.Context, id string) (models.EntityKind, error)
}

// expectKind resolves id and fails with TYPE_MISMATCH when it names an entity of another kind.
func expectKind(ctx context.Context, resolver kindResolver, metrics *MetricsService, id string, want models.EntityKind, field string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", want))
	}
	kind, err := resolver.KindOf(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", want))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entity")
	}
	if kind != want {
		metrics.RecordKindMismatch(string(want))
		return appErrors.Clone(appErrors.ErrTypeMismatch, fmt.Sprintf("%s must reference a %s, got %s", field, want, kind))
	}
	return nil
}

func notFoundOr(err error, entity, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, action)
}

func paginate(filter models.ListFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
