package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
	"github.com/noah-isme/sma-roster-api/pkg/export"
)

type rosterSource interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	EnrollmentsOfStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	EnrollmentsOfCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// ExportResult is a rendered document ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders enrollment views as downloadable documents.
type ExportService struct {
	source    rosterSource
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. A nil renderers map selects the
// built-in CSV, PDF and XLSX renderers.
func NewExportService(source rosterSource, renderers map[export.Format]export.Renderer, logger *zap.Logger) *ExportService {
	if renderers == nil {
		renderers = export.Renderers()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{source: source, renderers: renderers, logger: logger}
}

// CourseRoster renders the students enrolled in a course, one row per enrollment.
func (s *ExportService) CourseRoster(ctx context.Context, courseID, format string) (*ExportResult, error) {
	f, renderer, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	course, err := s.source.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.source.EnrollmentsOfCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   course.Title + " roster",
		Headers: []string{"No", "Student", "Student ID", "Enrolled At"},
	}
	for i, e := range enrollments {
		data.Rows = append(data.Rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Student.Name,
			e.StudentID,
			e.EnrolledAt.UTC().Format(time.RFC3339),
		})
	}
	return s.render(renderer, f, data, "roster-"+course.Title)
}

// StudentSchedule renders the courses a student is enrolled in, one row per enrollment.
func (s *ExportService) StudentSchedule(ctx context.Context, studentID, format string) (*ExportResult, error) {
	f, renderer, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	student, err := s.source.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.source.EnrollmentsOfStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   student.Name + " courses",
		Headers: []string{"No", "Course", "Course ID", "Enrolled At"},
	}
	for i, e := range enrollments {
		data.Rows = append(data.Rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Course.Title,
			e.CourseID,
			e.EnrolledAt.UTC().Format(time.RFC3339),
		})
	}
	return s.render(renderer, f, data, "courses-"+student.Name)
}

func (s *ExportService) renderer(format string) (export.Format, export.Renderer, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be one of csv, pdf, xlsx")
	}
	renderer, ok := s.renderers[f]
	if !ok {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("format %s is not available", f))
	}
	return f, renderer, nil
}

func (s *ExportService) render(renderer export.Renderer, f export.Format, data export.Dataset, base string) (*ExportResult, error) {
	content, err := renderer.Render(data)
	if err != nil {
		s.logger.Error("export render failed", zap.String("format", string(f)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    sanitizeFilename(base) + "." + string(f),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}

func sanitizeFilename(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}
