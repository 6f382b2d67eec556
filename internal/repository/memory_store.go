package repository

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/relation"
)

// MemoryStore keeps entities and their associations in process memory.
// It is owned by whoever constructs it; there is no package-level state.
type MemoryStore struct {
	mu    sync.RWMutex
	kinds map[string]models.EntityKind

	parents  *memoryTable[models.Parent]
	children *memoryTable[models.Child]
	students *memoryTable[models.Student]
	courses  *memoryTable[models.Course]

	family   *relation.Index[string, string]
	linkedAt map[familyKey]time.Time

	enrollments *relation.Ledger[models.Enrollment]
	enrollSeq   map[string]int
}

type familyKey struct {
	parentID string
	childID  string
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kinds:    make(map[string]models.EntityKind),
		parents:  newMemoryTable(func(p models.Parent) string { return p.Name }),
		children: newMemoryTable(func(c models.Child) string { return c.Name }),
		students: newMemoryTable(func(s models.Student) string { return s.Name }),
		courses:  newMemoryTable(func(c models.Course) string { return c.Title }),
		family:   relation.NewIndex[string, string](),
		linkedAt: make(map[familyKey]time.Time),
		enrollments: relation.NewLedger(
			func(e models.Enrollment) string { return e.StudentID },
			func(e models.Enrollment) string { return e.CourseID },
		),
		enrollSeq: make(map[string]int),
	}
}

// KindOf resolves the kind of an entity id.
func (s *MemoryStore) KindOf(ctx context.Context, id string) (models.EntityKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kind, ok := s.kinds[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return kind, nil
}

// CreateParent stores a parent.
func (s *MemoryStore) CreateParent(ctx context.Context, parent *models.Parent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent.ID, parent.CreatedAt = stampEntity(parent.ID, parent.CreatedAt)
	s.kinds[parent.ID] = models.KindParent
	s.parents.insert(parent.ID, *parent)
	return nil
}

// CreateChild stores a child.
func (s *MemoryStore) CreateChild(ctx context.Context, child *models.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	child.ID, child.CreatedAt = stampEntity(child.ID, child.CreatedAt)
	s.kinds[child.ID] = models.KindChild
	s.children.insert(child.ID, *child)
	return nil
}

// CreateStudent stores a student.
func (s *MemoryStore) CreateStudent(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student.ID, student.CreatedAt = stampEntity(student.ID, student.CreatedAt)
	s.kinds[student.ID] = models.KindStudent
	s.students.insert(student.ID, *student)
	return nil
}

// CreateCourse stores a course.
func (s *MemoryStore) CreateCourse(ctx context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course.ID, course.CreatedAt = stampEntity(course.ID, course.CreatedAt)
	s.kinds[course.ID] = models.KindCourse
	s.courses.insert(course.ID, *course)
	return nil
}

// FindParent returns a parent by id.
func (s *MemoryStore) FindParent(ctx context.Context, id string) (*models.Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parents.find(id)
}

// FindChild returns a child by id.
func (s *MemoryStore) FindChild(ctx context.Context, id string) (*models.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.children.find(id)
}

// FindStudent returns a student by id.
func (s *MemoryStore) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.students.find(id)
}

// FindCourse returns a course by id.
func (s *MemoryStore) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courses.find(id)
}

// ListParents returns parents in creation order.
func (s *MemoryStore) ListParents(ctx context.Context, filter models.ListFilter) ([]models.Parent, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, total := s.parents.list(filter)
	return rows, total, nil
}

// ListChildren returns children in creation order.
func (s *MemoryStore) ListChildren(ctx context.Context, filter models.ListFilter) ([]models.Child, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, total := s.children.list(filter)
	return rows, total, nil
}

// ListStudents returns students in creation order.
func (s *MemoryStore) ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, total := s.students.list(filter)
	return rows, total, nil
}

// ListCourses returns courses in creation order.
func (s *MemoryStore) ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, total := s.courses.list(filter)
	return rows, total, nil
}

// LinkChild associates a child with a parent. It reports false when the link already
// existed, in which case link.LinkedAt is replaced by the stored value.
func (s *MemoryStore) LinkChild(ctx context.Context, link *models.FamilyLink) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := familyKey{parentID: link.ParentID, childID: link.ChildID}
	if !s.family.Link(link.ParentID, link.ChildID) {
		link.LinkedAt = s.linkedAt[key]
		return false, nil
	}
	if link.LinkedAt.IsZero() {
		link.LinkedAt = nowUTC()
	}
	s.linkedAt[key] = link.LinkedAt
	return true, nil
}

// ChildrenOf returns the children linked to a parent in link order.
func (s *MemoryStore) ChildrenOf(ctx context.Context, parentID string) ([]models.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.family.Right(parentID)
	out := make([]models.Child, 0, len(ids))
	for _, id := range ids {
		if child, ok := s.children.rows[id]; ok {
			out = append(out, child)
		}
	}
	return out, nil
}

// ParentsOf returns the parents linked to a child in link order.
func (s *MemoryStore) ParentsOf(ctx context.Context, childID string) ([]models.Parent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.family.Left(childID)
	out := make([]models.Parent, 0, len(ids))
	for _, id := range ids {
		if parent, ok := s.parents.rows[id]; ok {
			out = append(out, parent)
		}
	}
	return out, nil
}

// CreateEnrollment appends an enrollment and assigns its sequence number.
func (s *MemoryStore) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enrollment.ID == "" {
		enrollment.ID = newID()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = nowUTC()
	}
	enrollment.Seq = int64(s.enrollments.Len() + 1)
	seq := s.enrollments.Append(*enrollment)
	s.enrollSeq[enrollment.ID] = seq
	return nil
}

// FindEnrollment returns an enrollment with both endpoints.
func (s *MemoryStore) FindEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.enrollSeq[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	enrollment, ok := s.enrollments.At(seq)
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := s.detail(enrollment)
	return &detail, nil
}

// ListEnrollmentsByStudent returns a student's enrollments in creation order.
func (s *MemoryStore) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.details(s.enrollments.ByLeft(studentID)), nil
}

// ListEnrollmentsByCourse returns a course's enrollments in creation order.
func (s *MemoryStore) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.details(s.enrollments.ByRight(courseID)), nil
}

// Counts reports how many associations the store holds.
func (s *MemoryStore) Counts() (familyLinks, enrollments int) {
	return s.family.Len(), s.enrollments.Len()
}

// Ping always succeeds; the store lives in process.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) details(enrollments []models.Enrollment) []models.EnrollmentDetail {
	out := make([]models.EnrollmentDetail, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, s.detail(e))
	}
	return out
}

func (s *MemoryStore) detail(e models.Enrollment) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment: e,
		Student:    s.students.rows[e.StudentID],
		Course:     s.courses.rows[e.CourseID],
	}
}

func stampEntity(id string, createdAt time.Time) (string, time.Time) {
	if id == "" {
		id = newID()
	}
	if createdAt.IsZero() {
		createdAt = nowUTC()
	}
	return id, createdAt
}

// memoryTable is an insertion-ordered table; callers hold the store lock.
type memoryTable[T any] struct {
	rows  map[string]T
	order []string
	label func(T) string
}

func newMemoryTable[T any](label func(T) string) *memoryTable[T] {
	return &memoryTable[T]{rows: make(map[string]T), label: label}
}

func (t *memoryTable[T]) insert(id string, row T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *memoryTable[T]) find(id string) (*T, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (t *memoryTable[T]) list(filter models.ListFilter) ([]T, int) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if search != "" && !strings.Contains(strings.ToLower(t.label(row)), search) {
			continue
		}
		matched = append(matched, row)
	}
	total := len(matched)
	page, size := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * size
	if start >= total {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
