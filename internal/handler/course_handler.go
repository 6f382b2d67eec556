package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	courses enrollmentService
	exports exportService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses enrollmentService, exports exportService) *CourseHandler {
	return &CourseHandler{courses: courses, exports: exports}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, pagination, err := h.courses.ListCourses(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Enrollments godoc
// @Summary List enrollments of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *CourseHandler) Enrollments(c *gin.Context) {
	enrollments, err := h.courses.EnrollmentsOfCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Students godoc
// @Summary List students of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	students, err := h.courses.StudentsOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// ExportRoster godoc
// @Summary Export course roster
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Course ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /courses/{id}/roster/export [get]
func (h *CourseHandler) ExportRoster(c *gin.Context) {
	result, err := h.exports.CourseRoster(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}
