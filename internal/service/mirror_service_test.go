package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
)

type fakeStudentLister struct {
	rows []models.Student
	err  error
}

func (f fakeStudentLister) ListAll(ctx context.Context) ([]models.Student, error) {
	return f.rows, f.err
}

type fakeProfessorLister struct{ rows []models.Professor }

func (f fakeProfessorLister) ListAll(ctx context.Context) ([]models.Professor, error) {
	return f.rows, nil
}

type fakeAdminLister struct{ rows []models.Admin }

func (f fakeAdminLister) ListAll(ctx context.Context) ([]models.Admin, error) {
	return f.rows, nil
}

type fakeCourseLister struct{ rows []models.Course }

func (f fakeCourseLister) ListAll(ctx context.Context) ([]models.Course, error) {
	return f.rows, nil
}

type fakeEnrollmentLister struct{ rows []models.Enrollment }

func (f fakeEnrollmentLister) ListAll(ctx context.Context) ([]models.Enrollment, error) {
	return f.rows, nil
}

func TestMirrorServiceRebuild(t *testing.T) {
	m := mirror.New()
	service := NewMirrorService(
		fakeStudentLister{rows: []models.Student{{ID: "400123456", TotalUnits: 7}}},
		fakeProfessorLister{rows: []models.Professor{{ID: "1001"}}},
		fakeAdminLister{rows: []models.Admin{{Username: "admin"}}},
		fakeCourseLister{rows: []models.Course{{Code: "101", Units: 3, Status: models.CourseStatusApproved}}},
		fakeEnrollmentLister{rows: []models.Enrollment{{ID: "e1", StudentID: "400123456", CourseCode: "101"}}},
		m, nil, zap.NewNop(),
	)

	require.NoError(t, service.Rebuild(context.Background()))

	students, professors, admins, courses := m.Counts()
	assert.Equal(t, 1, students)
	assert.Equal(t, 1, professors)
	assert.Equal(t, 1, admins)
	assert.Equal(t, 1, courses)
	assert.True(t, m.IsEnrolled("400123456", "101"))
}

func TestMirrorServiceRebuildScanFailure(t *testing.T) {
	m := mirror.New()
	m.PutStudent(models.Student{ID: "stale"})
	service := NewMirrorService(
		fakeStudentLister{err: errors.New("connection reset")},
		fakeProfessorLister{}, fakeAdminLister{}, fakeCourseLister{}, fakeEnrollmentLister{},
		m, nil, zap.NewNop(),
	)

	require.Error(t, service.Rebuild(context.Background()))

	// The mirror keeps its previous content when a scan fails.
	_, ok := m.Student("stale")
	assert.True(t, ok)
}
