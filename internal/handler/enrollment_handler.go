package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

type enrollmentService interface {
	CreateStudent(ctx context.Context, req service.CreatePersonRequest) (*models.Student, error)
	CreateCourse(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListStudents(ctx context.Context, filter models.ListFilter) ([]models.Student, *models.Pagination, error)
	ListCourses(ctx context.Context, filter models.ListFilter) ([]models.Course, *models.Pagination, error)
	Enroll(ctx context.Context, req service.EnrollStudentRequest) (*models.EnrollmentDetail, error)
	GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	EnrollmentsOfStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	EnrollmentsOfCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	CoursesOf(ctx context.Context, studentID string) ([]models.Course, error)
	StudentsOf(ctx context.Context, courseID string) ([]models.Student, error)
}

type exportService interface {
	CourseRoster(ctx context.Context, courseID, format string) (*service.ExportResult, error)
	StudentSchedule(ctx context.Context, studentID, format string) (*service.ExportResult, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create godoc
// @Summary Enroll a student in a course
// @Description Each call records a new enrollment, including for a pair that is already enrolled.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollStudentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.GetEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
