package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollResult models.EnrollmentResult
	enrollErr    error
	enrollCalls  int
	dropResult   models.EnrollmentResult
	dropErr      error
	dropCalls    int
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) (models.EnrollmentResult, error) {
	m.enrollCalls++
	return m.enrollResult, m.enrollErr
}

func (m *mockEnrollmentRepo) Drop(ctx context.Context, studentID, courseCode string) (models.EnrollmentResult, error) {
	m.dropCalls++
	return m.dropResult, m.dropErr
}

func enrollmentMirror() *mirror.Mirror {
	m := mirror.New()
	m.Rebuild(mirror.Snapshot{
		Students: []models.Student{
			{ID: "400123456", Name: "Ali Mohammadi", TotalUnits: 7},
			{ID: "400654321", Name: "Sara Ahmadi", TotalUnits: 18},
		},
		Courses: []models.Course{
			{Code: "201", Name: "Data Structures", Units: 4, Capacity: 30, CurrentStudents: 15, Status: models.CourseStatusApproved},
			{Code: "202", Name: "Algorithms", Units: 3, Capacity: 2, CurrentStudents: 2, Status: models.CourseStatusApproved},
			{Code: "301", Name: "Operating Systems", Units: 4, Capacity: 25, Status: models.CourseStatusPending},
			{Code: "302", Name: "Databases", Units: 3, Capacity: 25, Status: models.CourseStatusRejected},
			{Code: "101", Name: "Calculus I", Units: 3, Capacity: 40, CurrentStudents: 5, Status: models.CourseStatusApproved},
		},
		Enrollments: []models.Enrollment{
			{ID: "e1", StudentID: "400123456", CourseCode: "101"},
		},
	})
	return m
}

func TestEnrollHappyPath(t *testing.T) {
	m := enrollmentMirror()
	repo := &mockEnrollmentRepo{enrollResult: models.EnrollmentResult{StudentTotalUnits: 11, CourseEnrollment: 16}}
	service := NewEnrollmentService(repo, m, nil, zap.NewNop())

	course, err := service.Enroll(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "201"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.enrollCalls)
	assert.Equal(t, 16, course.CurrentStudents)

	student, _ := m.Student("400123456")
	assert.Equal(t, 11, student.TotalUnits)
	assert.True(t, m.IsEnrolled("400123456", "201"))
}

func TestEnrollGateOrder(t *testing.T) {
	cases := []struct {
		name    string
		student string
		course  string
		want    *appErrors.Error
	}{
		{"course missing", "400123456", "999", appErrors.ErrNotFound},
		{"student missing", "999999999", "201", appErrors.ErrNotFound},
		{"rejected course", "400123456", "302", appErrors.ErrCourseRejected},
		{"pending course", "400123456", "301", appErrors.ErrCourseNotApproved},
		{"already enrolled", "400123456", "101", appErrors.ErrAlreadyEnrolled},
		{"capacity full", "400123456", "202", appErrors.ErrCapacityFull},
		{"unit cap exceeded", "400654321", "201", appErrors.ErrUnitCapExceeded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockEnrollmentRepo{}
			service := NewEnrollmentService(repo, enrollmentMirror(), nil, zap.NewNop())

			_, err := service.Enroll(context.Background(), EnrollRequest{StudentID: tc.student, CourseCode: tc.course})
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tc.want), "expected %s, got %v", tc.want.Code, err)
			assert.Zero(t, repo.enrollCalls, "store must not be touched when a gate fails")
		})
	}
}

func TestEnrollExactlyAtUnitCap(t *testing.T) {
	// 18 + 3 = 21 fails but 17 + 3 = 20 must pass: the cap is inclusive.
	m := enrollmentMirror()
	m.SetStudentUnits("400654321", 17)
	repo := &mockEnrollmentRepo{enrollResult: models.EnrollmentResult{StudentTotalUnits: 20, CourseEnrollment: 6}}
	service := NewEnrollmentService(repo, m, nil, zap.NewNop())

	_, err := service.Enroll(context.Background(), EnrollRequest{StudentID: "400654321", CourseCode: "101"})
	require.NoError(t, err)
}

func TestDropHappyPath(t *testing.T) {
	m := enrollmentMirror()
	repo := &mockEnrollmentRepo{dropResult: models.EnrollmentResult{StudentTotalUnits: 4, CourseEnrollment: 4}}
	service := NewEnrollmentService(repo, m, nil, zap.NewNop())

	err := service.Drop(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "101"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.dropCalls)
	assert.False(t, m.IsEnrolled("400123456", "101"))

	student, _ := m.Student("400123456")
	assert.Equal(t, 4, student.TotalUnits)
	course, _ := m.Course("101")
	assert.Equal(t, 4, course.CurrentStudents)
}

func TestDropNotEnrolled(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	service := NewEnrollmentService(repo, enrollmentMirror(), nil, zap.NewNop())

	err := service.Drop(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "201"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotEnrolled))
	assert.Zero(t, repo.dropCalls)
}

func TestDropMapsMissingRowToNotEnrolled(t *testing.T) {
	// The mirror can be ahead of the store after a lost race; the store's
	// verdict wins.
	repo := &mockEnrollmentRepo{dropErr: sql.ErrNoRows}
	service := NewEnrollmentService(repo, enrollmentMirror(), nil, zap.NewNop())

	err := service.Drop(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "101"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotEnrolled))
}

func TestEnrollThenDropRestoresCounters(t *testing.T) {
	m := enrollmentMirror()
	repo := &mockEnrollmentRepo{
		enrollResult: models.EnrollmentResult{StudentTotalUnits: 11, CourseEnrollment: 16},
		dropResult:   models.EnrollmentResult{StudentTotalUnits: 7, CourseEnrollment: 15},
	}
	service := NewEnrollmentService(repo, m, nil, zap.NewNop())

	before, _ := m.Student("400123456")
	_, err := service.Enroll(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "201"})
	require.NoError(t, err)
	require.NoError(t, service.Drop(context.Background(), EnrollRequest{StudentID: "400123456", CourseCode: "201"}))

	after, _ := m.Student("400123456")
	assert.Equal(t, before.TotalUnits, after.TotalUnits)
	course, _ := m.Course("201")
	assert.Equal(t, 15, course.CurrentStudents)
	assert.False(t, m.IsEnrolled("400123456", "201"))
}
