package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

// maxUnits is the per-student unit cap checked on every enrollment.
const maxUnits = 20

type enrollmentRepository interface {
	Enroll(ctx context.Context, enrollment *models.Enrollment) (models.EnrollmentResult, error)
	Drop(ctx context.Context, studentID, courseCode string) (models.EnrollmentResult, error)
}

// EnrollRequest identifies the (student, course) pair to register or drop.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseCode string `json:"course_code" validate:"required"`
}

// EnrollmentService enforces the enrollment gates and keeps the mirror's
// derived counters in step with the store.
type EnrollmentService struct {
	repo    enrollmentRepository
	mirror  *mirror.Mirror
	catalog catalogCache
	logger  *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. catalog may be nil when
// the catalog cache is disabled.
func NewEnrollmentService(repo enrollmentRepository, m *mirror.Mirror, catalog catalogCache, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, mirror: m, catalog: catalog, logger: logger}
}

// Enroll registers a student in a course. The gates run in a fixed order:
// existence checks come before state checks, and status checks come before
// capacity and unit checks so a pending or rejected course never surfaces a
// capacity message.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Course, error) {
	course, ok := s.mirror.Course(req.CourseCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	student, ok := s.mirror.Student(req.StudentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if course.Status == models.CourseStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrCourseRejected, "")
	}
	if course.Status == models.CourseStatusPending {
		return nil, appErrors.Clone(appErrors.ErrCourseNotApproved, "")
	}
	if s.mirror.IsEnrolled(req.StudentID, req.CourseCode) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}
	if course.CurrentStudents >= course.Capacity {
		return nil, appErrors.Clone(appErrors.ErrCapacityFull, "")
	}
	if student.TotalUnits+course.Units > maxUnits {
		return nil, appErrors.Clone(appErrors.ErrUnitCapExceeded,
			fmt.Sprintf("enrolling would bring total units to %d, above the cap of %d", student.TotalUnits+course.Units, maxUnits))
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseCode: req.CourseCode}
	result, err := s.repo.Enroll(ctx, enrollment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	s.mirror.AddEnrollment(req.StudentID, req.CourseCode)
	s.mirror.SetStudentUnits(req.StudentID, result.StudentTotalUnits)
	s.mirror.SetCourseEnrollment(req.CourseCode, result.CourseEnrollment)
	s.invalidateCatalog(ctx)

	s.logger.Info("enrolled",
		zap.String("student", req.StudentID),
		zap.String("course", req.CourseCode),
		zap.Int("total_units", result.StudentTotalUnits),
		zap.Int("current_students", result.CourseEnrollment),
	)

	updated, _ := s.mirror.Course(req.CourseCode)
	return &updated, nil
}

// Drop removes a student's registration and recomputes both counters.
func (s *EnrollmentService) Drop(ctx context.Context, req EnrollRequest) error {
	if _, ok := s.mirror.Course(req.CourseCode); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if _, ok := s.mirror.Student(req.StudentID); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if !s.mirror.IsEnrolled(req.StudentID, req.CourseCode) {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "this course is not in your list")
	}

	result, err := s.repo.Drop(ctx, req.StudentID, req.CourseCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotEnrolled, "this course is not in your list")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop course")
	}

	s.mirror.RemoveEnrollment(req.StudentID, req.CourseCode)
	s.mirror.SetStudentUnits(req.StudentID, result.StudentTotalUnits)
	s.mirror.SetCourseEnrollment(req.CourseCode, result.CourseEnrollment)
	s.invalidateCatalog(ctx)

	s.logger.Info("dropped",
		zap.String("student", req.StudentID),
		zap.String("course", req.CourseCode),
		zap.Int("total_units", result.StudentTotalUnits),
		zap.Int("current_students", result.CourseEnrollment),
	)
	return nil
}

func (s *EnrollmentService) invalidateCatalog(ctx context.Context) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
}
