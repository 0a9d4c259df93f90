package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uni-admin/enrollment-api/internal/models"
)

// CourseRepository handles persistence of courses. statusSupported tracks
// whether the courses table carries the status column; a legacy store that
// the migrator was not allowed to touch lacks it, so reads substitute a
// constant approved status and inserts omit the column.
type CourseRepository struct {
	db              *sqlx.DB
	statusSupported bool
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB, statusSupported bool) *CourseRepository {
	return &CourseRepository{db: db, statusSupported: statusSupported}
}

const courseColumns = `course_code, course_name, professor, professor_id, units, capacity,
        current_students, schedule, department, classroom, exam_date`

func (r *CourseRepository) selectColumns() string {
	if r.statusSupported {
		return courseColumns + `, status`
	}
	return courseColumns + `, 'approved' AS status`
}

// ListAll returns every course row, used for the mirror rebuild.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + r.selectColumns() + ` FROM courses`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode returns a course by primary key.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := `SELECT ` + r.selectColumns() + ` FROM courses WHERE course_code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course with a zero enrollment count.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `INSERT INTO courses (course_code, course_name, professor, professor_id, units, capacity,
            current_students, schedule, department, classroom, exam_date, status)
        VALUES (:course_code, :course_name, :professor, :professor_id, :units, :capacity,
            0, :schedule, :department, :classroom, :exam_date, :status)`
	if !r.statusSupported {
		query = `INSERT INTO courses (course_code, course_name, professor, professor_id, units, capacity,
            current_students, schedule, department, classroom, exam_date)
        VALUES (:course_code, :course_name, :professor, :professor_id, :units, :capacity,
            0, :schedule, :department, :classroom, :exam_date)`
	}
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a course. The code, the status and
// the derived enrollment counter are never touched here.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses
        SET course_name = :course_name, professor = :professor, professor_id = :professor_id,
            units = :units, capacity = :capacity, schedule = :schedule,
            department = :department, classroom = :classroom, exam_date = :exam_date
        WHERE course_code = :course_code`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// UpdateStatus sets the lifecycle status of a course.
func (r *CourseRepository) UpdateStatus(ctx context.Context, code string, status models.CourseStatus) error {
	const query = `UPDATE courses SET status = $2 WHERE course_code = $1`
	if _, err := r.db.ExecContext(ctx, query, code, status); err != nil {
		return fmt.Errorf("update course status: %w", err)
	}
	return nil
}

// DeleteCascade removes the course and every enrollment referencing it, then
// recomputes the unit total of each affected student. The whole cascade runs
// in one transaction and the fresh totals are returned for mirror patching.
func (r *CourseRepository) DeleteCascade(ctx context.Context, code string) ([]models.StudentUnits, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var affected []string
	if err := tx.SelectContext(ctx, &affected,
		`SELECT student_id FROM enrollments WHERE course_code = $1 ORDER BY student_id`, code); err != nil {
		return nil, fmt.Errorf("list affected students: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE course_code = $1`, code); err != nil {
		return nil, fmt.Errorf("delete enrollments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE course_code = $1`, code); err != nil {
		return nil, fmt.Errorf("delete course: %w", err)
	}

	totals := make([]models.StudentUnits, 0, len(affected))
	for _, studentID := range affected {
		total, err := recomputeStudentUnits(ctx, tx, studentID)
		if err != nil {
			return nil, err
		}
		totals = append(totals, models.StudentUnits{StudentID: studentID, TotalUnits: total})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete course: %w", err)
	}
	return totals, nil
}
