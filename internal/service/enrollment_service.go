package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type enrollmentStore interface {
	kindResolver
	CreateStudent(ctx context.Context, student *models.Student) error
	CreateCourse(ctx context.Context, course *models.Course) error
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, int, error)
	ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, int, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	FindEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

// EnrollStudentRequest describes enrollment creation request.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService orchestrates students, courses and the enrollments joining them.
type EnrollmentService struct {
	store     enrollmentStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(store enrollmentStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

func studentCoursesKey(studentID string) string { return "student:" + studentID + ":courses" }
func courseStudentsKey(courseID string) string  { return "course:" + courseID + ":students" }

// CreateStudent registers a student.
func (s *EnrollmentService) CreateStudent(ctx context.Context, req CreatePersonRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{Name: req.Name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// CreateCourse registers a course.
func (s *EnrollmentService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{Title: req.Title, CreatedAt: s.now().UTC()}
	if err := s.store.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// GetStudent returns a student by id.
func (s *EnrollmentService) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	if err := expectKind(ctx, s.store, s.metrics, id, models.KindStudent, "id"); err != nil {
		return nil, err
	}
	student, err := s.store.FindStudent(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student", "failed to load student")
	}
	return student, nil
}

// GetCourse returns a course by id.
func (s *EnrollmentService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	if err := expectKind(ctx, s.store, s.metrics, id, models.KindCourse, "id"); err != nil {
		return nil, err
	}
	course, err := s.store.FindCourse(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course", "failed to load course")
	}
	return course, nil
}

// ListStudents returns students with pagination metadata.
func (s *EnrollmentService) ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.store.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginate(filter, total), nil
}

// ListCourses returns courses with pagination metadata.
func (s *EnrollmentService) ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginate(filter, total), nil
}

// Enroll records a new enrollment stamped with the current time. Enrolling the same
// student in the same course again creates another, distinct enrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := expectKind(ctx, s.store, s.metrics, req.StudentID, models.KindStudent, "student_id"); err != nil {
		return nil, err
	}
	if err := expectKind(ctx, s.store, s.metrics, req.CourseID, models.KindCourse, "course_id"); err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID, EnrolledAt: s.now().UTC()}
	if err := s.store.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.metrics.RecordLink("enrollment", true)
	// Cache errors are logged by the cache service and never fail the write.
	s.cache.Invalidate(ctx, studentCoursesKey(req.StudentID), courseStudentsKey(req.CourseID))

	detail, err := s.store.FindEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
	)
	return detail, nil
}

// GetEnrollment returns one enrollment.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	detail, err := s.store.FindEnrollment(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "enrollment", "failed to load enrollment")
	}
	return detail, nil
}

// EnrollmentsOfStudent returns a student's enrollments in creation order.
func (s *EnrollmentService) EnrollmentsOfStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	if err := expectKind(ctx, s.store, s.metrics, studentID, models.KindStudent, "student_id"); err != nil {
		return nil, err
	}
	enrollments, err := s.store.ListEnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student enrollments")
	}
	return enrollments, nil
}

// EnrollmentsOfCourse returns a course's enrollments in creation order.
func (s *EnrollmentService) EnrollmentsOfCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	if err := expectKind(ctx, s.store, s.metrics, courseID, models.KindCourse, "course_id"); err != nil {
		return nil, err
	}
	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course enrollments")
	}
	return enrollments, nil
}

// CoursesOf projects a student's enrollments onto their courses, keeping order and duplicates.
func (s *EnrollmentService) CoursesOf(ctx context.Context, studentID string) ([]models.Course, error) {
	var cached []models.Course
	if hit, _ := s.cache.Get(ctx, studentCoursesKey(studentID), &cached); hit {
		return cached, nil
	}
	generation := s.cache.Generation()
	enrollments, err := s.EnrollmentsOfStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(enrollments))
	for _, e := range enrollments {
		courses = append(courses, e.Course)
	}
	s.cache.SetIfCurrent(ctx, generation, studentCoursesKey(studentID), courses, 0)
	return courses, nil
}

// StudentsOf projects a course's enrollments onto their students, keeping order and duplicates.
func (s *EnrollmentService) StudentsOf(ctx context.Context, courseID string) ([]models.Student, error) {
	var cached []models.Student
	if hit, _ := s.cache.Get(ctx, courseStudentsKey(courseID), &cached); hit {
		return cached, nil
	}
	generation := s.cache.Generation()
	enrollments, err := s.EnrollmentsOfCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, e.Student)
	}
	s.cache.SetIfCurrent(ctx, generation, courseStudentsKey(courseID), students, 0)
	return students, nil
}
