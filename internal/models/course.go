package models

// CourseStatus is the three-valued course lifecycle. Pending courses await an
// admin decision; only approved courses accept enrollments.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "pending"
	CourseStatusApproved CourseStatus = "approved"
	CourseStatusRejected CourseStatus = "rejected"
)

// Course represents an offered course. CurrentStudents is a derived counter
// equal to the number of enrollment rows referencing the course.
type Course struct {
	Code            string       `db:"course_code" json:"course_code"`
	Name            string       `db:"course_name" json:"course_name"`
	Professor       string       `db:"professor" json:"professor"`
	ProfessorID     string       `db:"professor_id" json:"professor_id"`
	Units           int          `db:"units" json:"units"`
	Capacity        int          `db:"capacity" json:"capacity"`
	CurrentStudents int          `db:"current_students" json:"current_students"`
	Schedule        string       `db:"schedule" json:"schedule"`
	Department      string       `db:"department" json:"department"`
	Classroom       string       `db:"classroom" json:"classroom,omitempty"`
	ExamDate        string       `db:"exam_date" json:"exam_date,omitempty"`
	Status          CourseStatus `db:"status" json:"status"`
}

// CourseFilter provides filters for browsing the catalog.
type CourseFilter struct {
	Search     string
	Department string
	Status     CourseStatus
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
