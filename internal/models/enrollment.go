package models

import "time"

// Enrollment captures an active registration of a student in a course.
// The (student_id, course_code) pair is unique; row existence is the only
// state, so dropping a course deletes the row.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
}

// EnrollmentDetail enriches Enrollment with student and course info for
// roster views.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentMajor string `db:"student_major" json:"student_major"`
	CourseName   string `db:"course_name" json:"course_name"`
	Units        int    `db:"units" json:"units"`
}

// StudentUnits reports a recomputed unit total for one student, produced by
// the course delete cascade.
type StudentUnits struct {
	StudentID  string `db:"student_id"`
	TotalUnits int    `db:"total_units"`
}

// EnrollmentResult reports the derived counters recomputed by an enroll or
// drop transaction so the mirror can be patched without a rescan.
type EnrollmentResult struct {
	StudentTotalUnits int
	CourseEnrollment  int
}
