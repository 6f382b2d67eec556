package models

// EntityKind tags every stored entity so associations can be checked at the boundary.
type EntityKind string

// Supported entity kinds.
const (
	KindParent  EntityKind = "parent"
	KindChild   EntityKind = "child"
	KindStudent EntityKind = "student"
	KindCourse  EntityKind = "course"
)

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindParent, KindChild, KindStudent, KindCourse:
		return true
	}
	return false
}

// ListFilter paginates entity listings.
type ListFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
