package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	appErrors "github.com/uni-admin/enrollment-api/pkg/errors"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
}

// RegisterStudentRequest describes student self-registration.
type RegisterStudentRequest struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Major     string `json:"major" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	EntryYear string `json:"entry_year"`
}

// defaultEntryYear labels students who registered without a year.
const defaultEntryYear = "unknown"

// StudentService handles registration and student reads off the mirror.
type StudentService struct {
	repo      studentRepository
	mirror    *mirror.Mirror
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, m *mirror.Mirror, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, mirror: m, validator: validate, logger: logger}
}

// Register creates a student with a zero unit total. Duplicate ids are
// rejected with state unchanged.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "please fill in all required fields")
	}
	if _, exists := s.mirror.Student(req.ID); exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "student id already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	entryYear := strings.TrimSpace(req.EntryYear)
	if entryYear == "" {
		entryYear = defaultEntryYear
	}

	student := &models.Student{
		ID:           req.ID,
		Name:         req.Name,
		PasswordHash: string(hash),
		Major:        req.Major,
		Email:        req.Email,
		EntryYear:    entryYear,
		TotalUnits:   0,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}

	s.mirror.PutStudent(*student)
	s.logger.Info("student registered", zap.String("student", student.ID))
	return student, nil
}

// List returns mirrored students matching the filter, with pagination applied
// in memory.
func (s *StudentService) List(filter models.StudentFilter) ([]models.Student, *models.Pagination) {
	students := s.mirror.Students(filter)
	page, size, window := paginate(len(students), filter.Page, filter.PageSize)
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(students)}
	return students[window[0]:window[1]], pagination
}

// Get returns one student together with their course codes.
func (s *StudentService) Get(id string) (*models.StudentDetail, error) {
	student, ok := s.mirror.Student(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &models.StudentDetail{Student: student, Courses: s.mirror.StudentCourses(id)}, nil
}

// Courses returns the full course entries a student holds.
func (s *StudentService) Courses(id string) ([]models.Course, error) {
	if _, ok := s.mirror.Student(id); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	codes := s.mirror.StudentCourses(id)
	courses := make([]models.Course, 0, len(codes))
	for _, code := range codes {
		if course, ok := s.mirror.Course(code); ok {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

// paginate clamps page/size and returns the slice window for an in-memory
// list of n items.
func paginate(n, page, size int) (int, int, [2]int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	start := (page - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return page, size, [2]int{start, end}
}
