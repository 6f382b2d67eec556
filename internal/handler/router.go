package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Family      *FamilyHandler
	Students    *StudentHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
}

// RegisterRoutes mounts the API on group. Write routes run behind writeGuard when it
// is non-empty.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, writeGuard ...gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, writeGuard...), handler)
	}

	if h.Auth != nil {
		group.POST("/auth/token", h.Auth.Login)
	}

	parents := group.Group("/parents")
	parents.POST("", write(h.Family.CreateParent)...)
	parents.GET("", h.Family.ListParents)
	parents.GET("/:id", h.Family.GetParent)
	parents.POST("/:id/children", write(h.Family.AddChild)...)
	parents.GET("/:id/children", h.Family.ChildrenOf)

	children := group.Group("/children")
	children.POST("", write(h.Family.CreateChild)...)
	children.GET("", h.Family.ListChildren)
	children.GET("/:id", h.Family.GetChild)
	children.GET("/:id/parents", h.Family.ParentsOf)

	students := group.Group("/students")
	students.POST("", write(h.Students.Create)...)
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.GET("/:id/enrollments", h.Students.Enrollments)
	students.GET("/:id/courses", h.Students.Courses)
	students.GET("/:id/courses/export", h.Students.ExportCourses)

	courses := group.Group("/courses")
	courses.POST("", write(h.Courses.Create)...)
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.GET("/:id/enrollments", h.Courses.Enrollments)
	courses.GET("/:id/students", h.Courses.Students)
	courses.GET("/:id/roster/export", h.Courses.ExportRoster)

	enrollments := group.Group("/enrollments")
	enrollments.POST("", write(h.Enrollments.Create)...)
	enrollments.GET("/:id", h.Enrollments.Get)
}
