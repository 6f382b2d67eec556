package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-roster-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.enrolled_at, e.seq,
        s.id AS "student.id", s.name AS "student.name", s.created_at AS "student.created_at",
        c.id AS "course.id", c.title AS "course.title", c.created_at AS "course.created_at"
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.id = e.course_id`

// CreateEnrollment inserts a new enrollment and reads back its sequence number.
// Duplicate student/course pairs are allowed.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = newID()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = nowUTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, enrolled_at)
        VALUES ($1, $2, $3, $4) RETURNING seq`
	if err := r.db.GetContext(ctx, &enrollment.Seq, query, enrollment.ID, enrollment.StudentID, enrollment.CourseID, enrollment.EnrolledAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindEnrollment returns an enrollment with both endpoints.
func (r *EnrollmentRepository) FindEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, enrollmentDetailSelect+` WHERE e.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListEnrollmentsByStudent returns a student's enrollments in creation order.
func (r *EnrollmentRepository) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	details := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &details, enrollmentDetailSelect+` WHERE e.student_id = $1 ORDER BY e.seq ASC`, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return details, nil
}

// ListEnrollmentsByCourse returns a course's enrollments in creation order.
func (r *EnrollmentRepository) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	details := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &details, enrollmentDetailSelect+` WHERE e.course_id = $1 ORDER BY e.seq ASC`, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return details, nil
}
