package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uni-admin/enrollment-api/internal/models"
)

// EnrollmentRepository handles persistence of the student/course relation and
// the derived counters that depend on it. Enroll, Drop and the recompute
// steps run inside one transaction so a crash can never leave the counters
// out of step with the enrollment rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListAll returns every enrollment row, used for the mirror rebuild.
func (r *EnrollmentRepository) ListAll(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, course_code, joined_at FROM enrollments`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Exists reports whether the (student, course) pair is registered.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseCode string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentID, courseCode); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Enroll inserts the enrollment row and recomputes both derived counters from
// aggregate queries within a single transaction.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) (models.EnrollmentResult, error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("begin enroll: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO enrollments (id, student_id, course_code, joined_at)
        VALUES (:id, :student_id, :course_code, :joined_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("create enrollment: %w", err)
	}

	result, err := recomputeCounters(ctx, tx, enrollment.StudentID, enrollment.CourseCode)
	if err != nil {
		return models.EnrollmentResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("commit enroll: %w", err)
	}
	return result, nil
}

// Drop deletes the enrollment row and recomputes both derived counters within
// a single transaction. Returns sql.ErrNoRows when the pair is not registered.
func (r *EnrollmentRepository) Drop(ctx context.Context, studentID, courseCode string) (models.EnrollmentResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("begin drop: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`DELETE FROM enrollments WHERE student_id = $1 AND course_code = $2`, studentID, courseCode)
	if err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("delete enrollment: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("delete enrollment: %w", err)
	}
	if deleted == 0 {
		return models.EnrollmentResult{}, sql.ErrNoRows
	}

	result, err := recomputeCounters(ctx, tx, studentID, courseCode)
	if err != nil {
		return models.EnrollmentResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("commit drop: %w", err)
	}
	return result, nil
}

// RosterByCourse returns the enrollments for a course joined with student and
// course info, ordered by student id.
func (r *EnrollmentRepository) RosterByCourse(ctx context.Context, courseCode string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_code, e.joined_at,
        s.name AS student_name, s.major AS student_major, c.course_name, c.units
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.course_code = e.course_code
        WHERE e.course_code = $1
        ORDER BY e.student_id`
	var roster []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &roster, query, courseCode); err != nil {
		return nil, fmt.Errorf("list course roster: %w", err)
	}
	return roster, nil
}

func recomputeCounters(ctx context.Context, tx *sqlx.Tx, studentID, courseCode string) (models.EnrollmentResult, error) {
	totalUnits, err := recomputeStudentUnits(ctx, tx, studentID)
	if err != nil {
		return models.EnrollmentResult{}, err
	}

	var current int
	if err := tx.GetContext(ctx, &current,
		`SELECT COUNT(*) FROM enrollments WHERE course_code = $1`, courseCode); err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("count course enrollments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE courses SET current_students = $2 WHERE course_code = $1`, courseCode, current); err != nil {
		return models.EnrollmentResult{}, fmt.Errorf("update course enrollment count: %w", err)
	}

	return models.EnrollmentResult{StudentTotalUnits: totalUnits, CourseEnrollment: current}, nil
}

// recomputeStudentUnits rewrites a student's unit total from the join over
// their enrollments. Shared with the course delete cascade.
func recomputeStudentUnits(ctx context.Context, tx *sqlx.Tx, studentID string) (int, error) {
	var total int
	if err := tx.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(c.units), 0)
         FROM enrollments e
         JOIN courses c ON c.course_code = e.course_code
         WHERE e.student_id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("sum student units: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET total_units = $2 WHERE id = $1`, studentID, total); err != nil {
		return 0, fmt.Errorf("update student units: %w", err)
	}
	return total, nil
}
