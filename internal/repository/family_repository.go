package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// FamilyRepository persists parent/child links.
type FamilyRepository struct {
	db *sqlx.DB
}

// NewFamilyRepository constructs the repository.
func NewFamilyRepository(db *sqlx.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// LinkChild inserts the link unless it exists. When it exists the stored linked_at is
// copied onto link and false is returned.
func (r *FamilyRepository) LinkChild(ctx context.Context, link *models.FamilyLink) (bool, error) {
	if link.LinkedAt.IsZero() {
		link.LinkedAt = nowUTC()
	}
	const insert = `INSERT INTO family_links (parent_id, child_id, linked_at) VALUES ($1, $2, $3)
        ON CONFLICT (parent_id, child_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, insert, link.ParentID, link.ChildID, link.LinkedAt)
	if err != nil {
		return false, fmt.Errorf("link child: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link child rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	const existing = `SELECT linked_at FROM family_links WHERE parent_id = $1 AND child_id = $2`
	if err := r.db.GetContext(ctx, &link.LinkedAt, existing, link.ParentID, link.ChildID); err != nil {
		return false, fmt.Errorf("load existing link: %w", err)
	}
	return false, nil
}

// ChildrenOf returns the children of a parent in link order.
func (r *FamilyRepository) ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error) {
	const query = `SELECT c.id, c.name, c.created_at FROM family_links fl
        JOIN children c ON c.id = fl.child_id
        WHERE fl.parent_id = $1 ORDER BY fl.seq ASC`
	children := []models.Child{}
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children of parent: %w", err)
	}
	return children, nil
}

// ParentsOf returns the parents of a child in link order.
func (r *FamilyRepository) ParentsOf(ctx context.Context, childID string) ([]models.Parent, error) {
	const query = `SELECT p.id, p.name, p.created_at FROM family_links fl
        JOIN parents p ON p.id = fl.parent_id
        WHERE fl.child_id = $1 ORDER BY fl.seq ASC`
	parents := []models.Parent{}
	if err := r.db.SelectContext(ctx, &parents, query, childID); err != nil {
		return nil, fmt.Errorf("list parents of child: %w", err)
	}
	return parents, nil
}
