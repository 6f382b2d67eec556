package models

import "time"

// Parent is the owning side of a family link.
type Parent struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Child is the dependent side of a family link.
type Child struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FamilyLink records one parent/child association.
type FamilyLink struct {
	ParentID string    `db:"parent_id" json:"parent_id"`
	ChildID  string    `db:"child_id" json:"child_id"`
	LinkedAt time.Time `db:"linked_at" json:"linked_at"`
}

// FamilyLinkResult is returned by AddChild; Created is false when the pair already existed.
type FamilyLinkResult struct {
	FamilyLink
	Created bool `json:"created"`
}
