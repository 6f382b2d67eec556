package repository

import (
	"context"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// Store is the contract shared by the memory and Postgres drivers. Lookups of unknown
// ids report sql.ErrNoRows.
type Store interface {
	KindOf(ctx context.Context, id string) (models.EntityKind, error)

	CreateParent(ctx context.Context, parent *models.Parent) error
	CreateChild(ctx context.Context, child *models.Child) error
	CreateStudent(ctx context.Context, student *models.Student) error
	CreateCourse(ctx context.Context, course *models.Course) error
	FindParent(ctx context.Context, id string) (*models.Parent, error)
	FindChild(ctx context.Context, id string) (*models.Child, error)
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, int, error)
	ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, int, error)
	ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error)
	ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error)

	LinkChild(ctx context.Context, link *models.FamilyLink) (bool, error)
	ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error)
	ParentsOf(ctx context.Context, childID string) ([]models.Parent, error)

	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	FindEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)

	Counts() (familyLinks, enrollments int)
	Ping(ctx context.Context) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
