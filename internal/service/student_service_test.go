package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type mockStudentRepo struct {
	created []models.Student
	err     error
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *student)
	return nil
}

func studentMirror() *mirror.Mirror {
	m := mirror.New()
	m.Rebuild(mirror.Snapshot{
		Students: []models.Student{
			{ID: "400123456", Name: "Ali Mohammadi", Major: "Computer Engineering", TotalUnits: 7},
			{ID: "400654321", Name: "Sara Ahmadi", Major: "Mathematics", TotalUnits: 3},
		},
		Courses: []models.Course{
			{Code: "101", Name: "Calculus I", Units: 3, Status: models.CourseStatusApproved},
			{Code: "201", Name: "Data Structures", Units: 4, Status: models.CourseStatusApproved},
		},
		Enrollments: []models.Enrollment{
			{ID: "e1", StudentID: "400123456", CourseCode: "101"},
			{ID: "e2", StudentID: "400123456", CourseCode: "201"},
		},
	})
	return m
}

func TestRegisterStudent(t *testing.T) {
	repo := &mockStudentRepo{}
	m := studentMirror()
	service := NewStudentService(repo, m, validator.New(), zap.NewNop())

	student, err := service.Register(context.Background(), RegisterStudentRequest{
		ID:       "400777777",
		Name:     "New Student",
		Password: "secret-pass",
		Major:    "Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, student.TotalUnits)
	assert.Equal(t, "unknown", student.EntryYear)
	require.Len(t, repo.created, 1)

	// Stored as a bcrypt hash, never plaintext.
	assert.NotEqual(t, "secret-pass", student.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("secret-pass")))

	_, ok := m.Student("400777777")
	assert.True(t, ok)
}

func TestRegisterStudentDuplicateID(t *testing.T) {
	repo := &mockStudentRepo{}
	service := NewStudentService(repo, studentMirror(), validator.New(), zap.NewNop())

	_, err := service.Register(context.Background(), RegisterStudentRequest{
		ID:       "400123456",
		Name:     "Impostor",
		Password: "secret-pass",
		Major:    "Physics",
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))
	assert.Empty(t, repo.created)
}

func TestRegisterStudentMissingFields(t *testing.T) {
	service := NewStudentService(&mockStudentRepo{}, studentMirror(), validator.New(), zap.NewNop())

	_, err := service.Register(context.Background(), RegisterStudentRequest{ID: "400888888"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStudentGetWithCourses(t *testing.T) {
	service := NewStudentService(&mockStudentRepo{}, studentMirror(), validator.New(), zap.NewNop())

	detail, err := service.Get("400123456")
	require.NoError(t, err)
	assert.Equal(t, "Ali Mohammadi", detail.Name)
	assert.Equal(t, []string{"101", "201"}, detail.Courses)

	_, err = service.Get("missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentCourses(t *testing.T) {
	service := NewStudentService(&mockStudentRepo{}, studentMirror(), validator.New(), zap.NewNop())

	courses, err := service.Courses("400123456")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Calculus I", courses[0].Name)

	courses, err = service.Courses("400654321")
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestStudentListFiltersAndPaginates(t *testing.T) {
	service := NewStudentService(&mockStudentRepo{}, studentMirror(), validator.New(), zap.NewNop())

	students, pagination := service.List(models.StudentFilter{})
	require.Len(t, students, 2)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, 20, pagination.PageSize)

	students, _ = service.List(models.StudentFilter{Search: "sara"})
	require.Len(t, students, 1)
	assert.Equal(t, "400654321", students[0].ID)

	students, pagination = service.List(models.StudentFilter{Page: 2, PageSize: 1})
	require.Len(t, students, 1)
	assert.Equal(t, "400654321", students[0].ID)
	assert.Equal(t, 2, pagination.Page)
}

func TestPaginateClamping(t *testing.T) {
	page, size, window := paginate(50, 0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
	assert.Equal(t, [2]int{0, 20}, window)

	_, _, window = paginate(5, 3, 2)
	assert.Equal(t, [2]int{4, 5}, window)

	_, _, window = paginate(5, 99, 2)
	assert.Equal(t, [2]int{5, 5}, window)

	// Oversized limits clamp to the maximum instead of shrinking to the
	// default, so limit=1000 never returns fewer rows than limit=100.
	_, size, window = paginate(250, 1, 1000)
	assert.Equal(t, 100, size)
	assert.Equal(t, [2]int{0, 100}, window)
}
