package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type studentLister interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type professorLister interface {
	ListAll(ctx context.Context) ([]models.Professor, error)
}

type adminLister interface {
	ListAll(ctx context.Context) ([]models.Admin, error)
}

type courseLister interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type enrollmentLister interface {
	ListAll(ctx context.Context) ([]models.Enrollment, error)
}

// MirrorService rebuilds the in-memory mirror from full-table scans. It runs
// once at startup and on demand from the admin maintenance endpoint.
type MirrorService struct {
	students    studentLister
	professors  professorLister
	admins      adminLister
	courses     courseLister
	enrollments enrollmentLister
	mirror      *mirror.Mirror
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewMirrorService constructs MirrorService. metrics may be nil.
func NewMirrorService(students studentLister, professors professorLister, admins adminLister,
	courses courseLister, enrollments enrollmentLister, m *mirror.Mirror, metrics *MetricsService, logger *zap.Logger) *MirrorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirrorService{
		students:    students,
		professors:  professors,
		admins:      admins,
		courses:     courses,
		enrollments: enrollments,
		mirror:      m,
		metrics:     metrics,
		logger:      logger,
	}
}

// Rebuild replaces the whole mirror with the store's current content.
func (s *MirrorService) Rebuild(ctx context.Context) error {
	start := time.Now()
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan students")
	}
	professors, err := s.professors.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan professors")
	}
	admins, err := s.admins.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan admins")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan courses")
	}
	enrollments, err := s.enrollments.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan enrollments")
	}
	s.metrics.ObserveDBQuery("mirror_full_scan", time.Since(start))

	s.mirror.Rebuild(mirror.Snapshot{
		Students:    students,
		Professors:  professors,
		Admins:      admins,
		Courses:     courses,
		Enrollments: enrollments,
	})

	nStudents, nProfessors, nAdmins, nCourses := s.mirror.Counts()
	s.metrics.RecordMirrorRebuild(nStudents, nProfessors, nAdmins, nCourses)
	s.logger.Info("mirror rebuilt",
		zap.Int("students", nStudents),
		zap.Int("professors", nProfessors),
		zap.Int("admins", nAdmins),
		zap.Int("courses", nCourses),
		zap.Int("enrollments", len(enrollments)),
	)
	return nil
}
