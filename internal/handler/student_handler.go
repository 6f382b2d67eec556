package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/service"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students enrollmentService
	exports  exportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students enrollmentService, exports exportService) *StudentHandler {
	return &StudentHandler{students: students, exports: exports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, pagination, err := h.students.ListStudents(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreatePersonRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Enrollments godoc
// @Summary List enrollments of a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *StudentHandler) Enrollments(c *gin.Context) {
	enrollments, err := h.students.EnrollmentsOfStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Courses godoc
// @Summary List courses of a student
// @Description One entry per enrollment, in enrollment order.
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses [get]
func (h *StudentHandler) Courses(c *gin.Context) {
	courses, err := h.students.CoursesOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ExportCourses godoc
// @Summary Export courses of a student
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /students/{id}/courses/export [get]
func (h *StudentHandler) ExportCourses(c *gin.Context) {
	result, err := h.exports.StudentSchedule(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}
