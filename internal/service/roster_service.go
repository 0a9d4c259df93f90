package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
	"github.com/uni-admin/enrollment-api/pkg/export"
)

type rosterRepository interface {
	RosterByCourse(ctx context.Context, courseCode string) ([]models.EnrollmentDetail, error)
}

// ExportFormat selects the roster export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// RosterExport is a rendered roster document.
type RosterExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// RosterService serves professor course lists and course rosters, with
// CSV/PDF export.
type RosterService struct {
	repo   rosterRepository
	mirror *mirror.Mirror
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewRosterService constructs RosterService.
func NewRosterService(repo rosterRepository, m *mirror.Mirror, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		repo:   repo,
		mirror: m,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ProfessorCourses lists the courses taught by a professor.
func (s *RosterService) ProfessorCourses(professorID string) ([]models.Course, error) {
	if _, ok := s.mirror.Professor(professorID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
	}
	return s.mirror.CoursesByProfessor(professorID), nil
}

// Course returns the mirrored course, used for ownership checks before a
// roster is served.
func (s *RosterService) Course(code string) (models.Course, error) {
	course, ok := s.mirror.Course(code)
	if !ok {
		return models.Course{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// CourseRoster returns the enrolled students of a course with context.
func (s *RosterService) CourseRoster(ctx context.Context, courseCode string) ([]models.EnrollmentDetail, error) {
	if _, ok := s.mirror.Course(courseCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	roster, err := s.repo.RosterByCourse(ctx, courseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Export renders the roster of a course as CSV or PDF.
func (s *RosterService) Export(ctx context.Context, courseCode string, format ExportFormat) (*RosterExport, error) {
	course, ok := s.mirror.Course(courseCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	roster, err := s.CourseRoster(ctx, courseCode)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Major", "Units", "Joined"},
		Rows:    make([]map[string]string, 0, len(roster)),
	}
	for _, entry := range roster {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": entry.StudentID,
			"Name":       entry.StudentName,
			"Major":      entry.StudentMajor,
			"Units":      strconv.Itoa(entry.Units),
			"Joined":     entry.JoinedAt.UTC().Format(time.RFC3339),
		})
	}

	var (
		content     []byte
		contentType string
	)
	switch format {
	case ExportCSV:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportPDF:
		title := fmt.Sprintf("Roster %s - %s", course.Code, course.Name)
		content, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}

	fileName := fmt.Sprintf("roster_%s.%s", strings.ReplaceAll(courseCode, "/", "_"), format)
	s.logger.Info("roster exported", zap.String("course", courseCode), zap.String("format", string(format)))
	return &RosterExport{FileName: fileName, ContentType: contentType, Content: content}, nil
}
