package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, code string, status models.CourseStatus) error
	DeleteCascade(ctx context.Context, code string) ([]models.StudentUnits, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string) ([]models.Course, bool)
	Set(ctx context.Context, key string, courses []models.Course)
	Invalidate(ctx context.Context)
}

// CourseRequest carries the admin-supplied course fields. Units and capacity
// arrive as text the way the original form fields did; parse failures are
// validation errors, not internal ones.
type CourseRequest struct {
	Code        string `json:"course_code" validate:"required"`
	Name        string `json:"course_name" validate:"required"`
	Professor   string `json:"professor" validate:"required"`
	ProfessorID string `json:"professor_id"`
	Units       string `json:"units" validate:"required"`
	Capacity    string `json:"capacity" validate:"required"`
	Schedule    string `json:"schedule" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Classroom   string `json:"classroom"`
	ExamDate    string `json:"exam_date"`
}

// CourseService enforces the course lifecycle rules: creation, edits, the
// approval workflow and the delete cascade.
type CourseService struct {
	repo            courseRepository
	mirror          *mirror.Mirror
	catalog         catalogCache
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	statusSupported bool
}

// NewCourseService constructs CourseService. catalog and metrics may be nil.
func NewCourseService(repo courseRepository, m *mirror.Mirror, catalog catalogCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, statusSupported bool) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, mirror: m, catalog: catalog, metrics: metrics, validator: validate, logger: logger, statusSupported: statusSupported}
}

// List returns catalog courses matching the filter, served from the Redis
// cache when enabled and warm.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination) {
	key := catalogKey(filter)
	courses, hit := []models.Course(nil), false
	if s.catalog != nil {
		courses, hit = s.catalog.Get(ctx, key)
		s.metrics.RecordCacheLookup(hit)
	}
	if !hit {
		courses = s.mirror.Courses(filter)
		if s.catalog != nil {
			s.catalog.Set(ctx, key, courses)
		}
	}

	page, size, window := paginate(len(courses), filter.Page, filter.PageSize)
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(courses)}
	return courses[window[0]:window[1]], pagination
}

// Get returns one course from the mirror.
func (s *CourseService) Get(code string) (*models.Course, error) {
	course, ok := s.mirror.Course(code)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return &course, nil
}

// Add creates a course. New courses start pending when the status workflow is
// available, else approved (legacy behavior).
func (s *CourseService) Add(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if _, exists := s.mirror.Course(req.Code); exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "course code already exists")
	}
	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}

	course.Status = models.CourseStatusApproved
	if s.statusSupported {
		course.Status = models.CourseStatusPending
	}
	course.CurrentStudents = 0

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add course")
	}

	s.mirror.PutCourse(*course)
	s.invalidateCatalog(ctx)
	s.logger.Info("course added", zap.String("course", course.Code), zap.String("status", string(course.Status)))
	return course, nil
}

// Update overwrites the mutable fields of a course; code, status and the
// enrollment counter are preserved.
func (s *CourseService) Update(ctx context.Context, code string, req CourseRequest) (*models.Course, error) {
	existing, ok := s.mirror.Course(code)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	req.Code = code
	course, err := s.buildCourse(req)
	if err != nil {
		return nil, err
	}
	course.Status = existing.Status
	course.CurrentStudents = existing.CurrentStudents

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.mirror.PutCourse(*course)
	s.invalidateCatalog(ctx)
	s.logger.Info("course updated", zap.String("course", code))
	return course, nil
}

// Approve marks a course approved, opening it for enrollment.
func (s *CourseService) Approve(ctx context.Context, code string) error {
	return s.setStatus(ctx, code, models.CourseStatusApproved)
}

// Reject marks a course rejected.
func (s *CourseService) Reject(ctx context.Context, code string) error {
	return s.setStatus(ctx, code, models.CourseStatusRejected)
}

func (s *CourseService) setStatus(ctx context.Context, code string, status models.CourseStatus) error {
	if _, ok := s.mirror.Course(code); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if !s.statusSupported {
		return appErrors.Clone(appErrors.ErrStatusUnsupported, "")
	}
	if err := s.repo.UpdateStatus(ctx, code, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	s.mirror.SetCourseStatus(code, status)
	s.invalidateCatalog(ctx)
	s.logger.Info("course status changed", zap.String("course", code), zap.String("status", string(status)))
	return nil
}

// Delete removes a course, cascades its enrollments and patches the unit
// total of every student who held it.
func (s *CourseService) Delete(ctx context.Context, code string) error {
	if _, ok := s.mirror.Course(code); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	totals, err := s.repo.DeleteCascade(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.mirror.RemoveCourse(code)
	for _, t := range totals {
		s.mirror.SetStudentUnits(t.StudentID, t.TotalUnits)
	}
	s.invalidateCatalog(ctx)
	s.logger.Info("course deleted", zap.String("course", code), zap.Int("affected_students", len(totals)))
	return nil
}

func (s *CourseService) buildCourse(req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "please fill in all required fields")
	}
	units, err := strconv.Atoi(req.Units)
	if err != nil || units <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "units must be a positive number")
	}
	capacity, err := strconv.Atoi(req.Capacity)
	if err != nil || capacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity must be a positive number")
	}
	return &models.Course{
		Code:        req.Code,
		Name:        req.Name,
		Professor:   req.Professor,
		ProfessorID: req.ProfessorID,
		Units:       units,
		Capacity:    capacity,
		Schedule:    req.Schedule,
		Department:  req.Department,
		Classroom:   req.Classroom,
		ExamDate:    req.ExamDate,
	}, nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}

func catalogKey(filter models.CourseFilter) string {
	return fmt.Sprintf("s=%s|d=%s|st=%s", filter.Search, filter.Department, filter.Status)
}
