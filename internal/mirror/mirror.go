// Package mirror holds the in-memory copy of the store used for fast reads.
// It is never the source of truth: it is rebuilt wholesale at startup and
// patched after every successful mutation with values the store reported.
package mirror

import (
	"sort"
	"strings"
	"sync"

	"github.com/uni-admin/enrollment-api/internal/models"
)

// Mirror indexes students, professors, admins, courses and the enrollment
// relation. The RWMutex exists because the HTTP server serves reads
// concurrently with mutations, even though the business model assumes a
// single interactive session.
type Mirror struct {
	mu          sync.RWMutex
	students    map[string]models.Student
	professors  map[string]models.Professor
	admins      map[string]models.Admin
	courses     map[string]models.Course
	enrollments map[string]map[string]struct{} // student id -> set of course codes
}

// New returns an empty mirror.
func New() *Mirror {
	return &Mirror{
		students:    make(map[string]models.Student),
		professors:  make(map[string]models.Professor),
		admins:      make(map[string]models.Admin),
		courses:     make(map[string]models.Course),
		enrollments: make(map[string]map[string]struct{}),
	}
}

// Snapshot is the full dataset used to rebuild the mirror.
type Snapshot struct {
	Students    []models.Student
	Professors  []models.Professor
	Admins      []models.Admin
	Courses     []models.Course
	Enrollments []models.Enrollment
}

// Rebuild replaces the entire mirror content with the snapshot.
func (m *Mirror) Rebuild(snap Snapshot) {
	students := make(map[string]models.Student, len(snap.Students))
	for _, s := range snap.Students {
		students[s.ID] = s
	}
	professors := make(map[string]models.Professor, len(snap.Professors))
	for _, p := range snap.Professors {
		professors[p.ID] = p
	}
	admins := make(map[string]models.Admin, len(snap.Admins))
	for _, a := range snap.Admins {
		admins[a.Username] = a
	}
	courses := make(map[string]models.Course, len(snap.Courses))
	for _, c := range snap.Courses {
		courses[c.Code] = c
	}
	enrollments := make(map[string]map[string]struct{})
	for _, e := range snap.Enrollments {
		set, ok := enrollments[e.StudentID]
		if !ok {
			set = make(map[string]struct{})
			enrollments[e.StudentID] = set
		}
		set[e.CourseCode] = struct{}{}
	}

	m.mu.Lock()
	m.students = students
	m.professors = professors
	m.admins = admins
	m.courses = courses
	m.enrollments = enrollments
	m.mu.Unlock()
}

// Student returns the mirrored student, if present.
func (m *Mirror) Student(id string) (models.Student, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	return s, ok
}

// PutStudent inserts or replaces a student entry.
func (m *Mirror) PutStudent(s models.Student) {
	m.mu.Lock()
	m.students[s.ID] = s
	m.mu.Unlock()
}

// SetStudentUnits patches the derived unit total for a student.
func (m *Mirror) SetStudentUnits(id string, totalUnits int) {
	m.mu.Lock()
	if s, ok := m.students[id]; ok {
		s.TotalUnits = totalUnits
		m.students[id] = s
	}
	m.mu.Unlock()
}

// Students lists mirrored students filtered by search text and major,
// ordered by id.
func (m *Mirror) Students(filter models.StudentFilter) []models.Student {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Student, 0, len(m.students))
	search := strings.ToLower(filter.Search)
	for _, s := range m.students {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.ID), search) {
			continue
		}
		if filter.Major != "" && !strings.EqualFold(s.Major, filter.Major) {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Professor returns the mirrored professor, if present.
func (m *Mirror) Professor(id string) (models.Professor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.professors[id]
	return p, ok
}

// Admin returns the mirrored admin, if present.
func (m *Mirror) Admin(username string) (models.Admin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.admins[username]
	return a, ok
}

// Course returns the mirrored course, if present.
func (m *Mirror) Course(code string) (models.Course, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[code]
	return c, ok
}

// PutCourse inserts or replaces a course entry.
func (m *Mirror) PutCourse(c models.Course) {
	m.mu.Lock()
	m.courses[c.Code] = c
	m.mu.Unlock()
}

// SetCourseStatus patches the lifecycle status of a course.
func (m *Mirror) SetCourseStatus(code string, status models.CourseStatus) {
	m.mu.Lock()
	if c, ok := m.courses[code]; ok {
		c.Status = status
		m.courses[code] = c
	}
	m.mu.Unlock()
}

// SetCourseEnrollment patches the derived enrollment count of a course.
func (m *Mirror) SetCourseEnrollment(code string, current int) {
	m.mu.Lock()
	if c, ok := m.courses[code]; ok {
		c.CurrentStudents = current
		m.courses[code] = c
	}
	m.mu.Unlock()
}

// RemoveCourse drops a course and every enrollment entry referencing it,
// returning the ids of students who held it.
func (m *Mirror) RemoveCourse(code string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.courses, code)
	var affected []string
	for studentID, set := range m.enrollments {
		if _, ok := set[code]; ok {
			delete(set, code)
			affected = append(affected, studentID)
		}
	}
	sort.Strings(affected)
	return affected
}

// Courses lists mirrored courses matching the filter, ordered by code.
func (m *Mirror) Courses(filter models.CourseFilter) []models.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Course, 0, len(m.courses))
	search := strings.ToLower(filter.Search)
	for _, c := range m.courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Code), search) &&
			!strings.Contains(strings.ToLower(c.Professor), search) {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(c.Department, filter.Department) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// CoursesByProfessor lists courses taught by the given professor id.
func (m *Mirror) CoursesByProfessor(professorID string) []models.Course {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Course
	for _, c := range m.courses {
		if c.ProfessorID == professorID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// IsEnrolled reports whether the student holds the course.
func (m *Mirror) IsEnrolled(studentID, courseCode string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.enrollments[studentID]
	if !ok {
		return false
	}
	_, ok = set[courseCode]
	return ok
}

// AddEnrollment records the pair in the relation index.
func (m *Mirror) AddEnrollment(studentID, courseCode string) {
	m.mu.Lock()
	set, ok := m.enrollments[studentID]
	if !ok {
		set = make(map[string]struct{})
		m.enrollments[studentID] = set
	}
	set[courseCode] = struct{}{}
	m.mu.Unlock()
}

// RemoveEnrollment removes the pair from the relation index.
func (m *Mirror) RemoveEnrollment(studentID, courseCode string) {
	m.mu.Lock()
	if set, ok := m.enrollments[studentID]; ok {
		delete(set, courseCode)
	}
	m.mu.Unlock()
}

// StudentCourses returns the sorted course codes held by the student.
func (m *Mirror) StudentCourses(studentID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.enrollments[studentID]
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// EnrolledStudents returns the sorted ids of students holding the course.
func (m *Mirror) EnrolledStudents(courseCode string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for studentID, set := range m.enrollments {
		if _, ok := set[courseCode]; ok {
			ids = append(ids, studentID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Counts reports the mirrored entity counts, used for the readiness probe
// and the rebuild gauge.
func (m *Mirror) Counts() (students, professors, admins, courses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), len(m.professors), len(m.admins), len(m.courses)
}
