package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// EntityRepository persists parents, children, students and courses.
type EntityRepository struct {
	db *sqlx.DB
}

// NewEntityRepository constructs the repository.
func NewEntityRepository(db *sqlx.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// KindOf resolves which entity table holds id.
func (r *EntityRepository) KindOf(ctx context.Context, id string) (models.EntityKind, error) {
	const query = `SELECT kind FROM (
        SELECT id, 'parent' AS kind FROM parents
        UNION ALL SELECT id, 'child' AS kind FROM children
        UNION ALL SELECT id, 'student' AS kind FROM students
        UNION ALL SELECT id, 'course' AS kind FROM courses
    ) e WHERE e.id = $1 LIMIT 1`
	var kind models.EntityKind
	if err := r.db.GetContext(ctx, &kind, query, id); err != nil {
		return "", err
	}
	if !kind.Valid() {
		return "", fmt.Errorf("entity %s has unknown kind %q", id, kind)
	}
	return kind, nil
}

// CreateParent inserts a parent.
func (r *EntityRepository) CreateParent(ctx context.Context, parent *models.Parent) error {
	parent.ID, parent.CreatedAt = stampEntity(parent.ID, parent.CreatedAt)
	const query = `INSERT INTO parents (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// CreateChild inserts a child.
func (r *EntityRepository) CreateChild(ctx context.Context, child *models.Child) error {
	child.ID, child.CreatedAt = stampEntity(child.ID, child.CreatedAt)
	const query = `INSERT INTO children (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, child); err != nil {
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// CreateStudent inserts a student.
func (r *EntityRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	student.ID, student.CreatedAt = stampEntity(student.ID, student.CreatedAt)
	const query = `INSERT INTO students (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// CreateCourse inserts a course.
func (r *EntityRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	course.ID, course.CreatedAt = stampEntity(course.ID, course.CreatedAt)
	const query = `INSERT INTO courses (id, title, created_at) VALUES (:id, :title, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindParent returns a parent by id.
func (r *EntityRepository) FindParent(ctx context.Context, id string) (*models.Parent, error) {
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, `SELECT id, name, created_at FROM parents WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// FindChild returns a child by id.
func (r *EntityRepository) FindChild(ctx context.Context, id string) (*models.Child, error) {
	var child models.Child
	if err := r.db.GetContext(ctx, &child, `SELECT id, name, created_at FROM children WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &child, nil
}

// FindStudent returns a student by id.
func (r *EntityRepository) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, `SELECT id, name, created_at FROM students WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindCourse returns a course by id.
func (r *EntityRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, `SELECT id, title, created_at FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListParents returns parents ordered by creation time.
func (r *EntityRepository) ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, int, error) {
	var rows []models.Parent
	total, err := r.list(ctx, &rows, "parents", "id, name, created_at", "name", filter)
	return rows, total, err
}

// ListChildren returns children ordered by creation time.
func (r *EntityRepository) ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, int, error) {
	var rows []models.Child
	total, err := r.list(ctx, &rows, "children", "id, name, created_at", "name", filter)
	return rows, total, err
}

// ListStudents returns students ordered by creation time.
func (r *EntityRepository) ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error) {
	var rows []models.Student
	total, err := r.list(ctx, &rows, "students", "id, name, created_at", "name", filter)
	return rows, total, err
}

// ListCourses returns courses ordered by creation time.
func (r *EntityRepository) ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error) {
	var rows []models.Course
	total, err := r.list(ctx, &rows, "courses", "id, title, created_at", "title", filter)
	return rows, total, err
}

func (r *EntityRepository) list(ctx context.Context, dest interface{}, table, columns, labelColumn string, filter models.ListFilter) (int, error) {
	var conditions []string
	var args []interface{}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", labelColumn, len(args)+1))
		args = append(args, "%"+search+"%")
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d", columns, table, clause, size, offset)
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", table, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, clause), args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}

// PostgresStore groups the Postgres repositories behind the store contract.
type PostgresStore struct {
	*EntityRepository
	*FamilyRepository
	*EnrollmentRepository

	logger      *zap.Logger
	countsMu    sync.Mutex
	familyCount int
	enrollCount int
}

// NewPostgresStore constructs all repositories over db.
func NewPostgresStore(db *sqlx.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		EntityRepository:     NewEntityRepository(db),
		FamilyRepository:     NewFamilyRepository(db),
		EnrollmentRepository: NewEnrollmentRepository(db),
		logger:               logger,
	}
}

// Counts reports how many associations are stored. A failed query is logged and the
// last successfully read value is kept.
func (s *PostgresStore) Counts() (familyLinks, enrollments int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.countsMu.Lock()
	defer s.countsMu.Unlock()

	var n int
	if err := s.EntityRepository.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM family_links`); err != nil {
		s.logger.Warn("count family links failed", zap.Error(err))
	} else {
		s.familyCount = n
	}
	if err := s.EntityRepository.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM enrollments`); err != nil {
		s.logger.Warn("count enrollments failed", zap.Error(err))
	} else {
		s.enrollCount = n
	}
	return s.familyCount, s.enrollCount
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.EntityRepository.db.PingContext(ctx)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}
