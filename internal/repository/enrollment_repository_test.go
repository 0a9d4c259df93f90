package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-admin/enrollment-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// expectCounterRecompute matches the aggregate queries and updates that keep
// total_units and current_students in step with the enrollment rows.
func expectCounterRecompute(mock sqlmock.Sqlmock, studentID, courseCode string, units, current int) {
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(c\.units\), 0\)`).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(units))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET total_units = $2 WHERE id = $1")).
		WithArgs(studentID, units).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE course_code = $1")).
		WithArgs(courseCode).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(current))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET current_students = $2 WHERE course_code = $1")).
		WithArgs(courseCode, current).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "400123456", "201", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectCounterRecompute(mock, "400123456", "201", 11, 16)
	mock.ExpectCommit()

	result, err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "400123456", CourseCode: "201"})
	require.NoError(t, err)
	assert.Equal(t, 11, result.StudentTotalUnits)
	assert.Equal(t, 16, result.CourseEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "400123456", CourseCode: "201"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDrop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND course_code = $2")).
		WithArgs("400123456", "201").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectCounterRecompute(mock, "400123456", "201", 7, 15)
	mock.ExpectCommit()

	result, err := repo.Drop(context.Background(), "400123456", "201")
	require.NoError(t, err)
	assert.Equal(t, 7, result.StudentTotalUnits)
	assert.Equal(t, 15, result.CourseEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropMissingPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND course_code = $2")).
		WithArgs("400123456", "999").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Drop(context.Background(), "400123456", "999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1")).
		WithArgs("400123456", "201").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "400123456", "201")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1")).
		WithArgs("400123456", "999").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.Exists(context.Background(), "400123456", "999")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryRosterByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_code", "joined_at", "student_name", "student_major", "course_name", "units"}).
		AddRow("e1", "400123456", "201", time.Now(), "Ali Mohammadi", "Computer Engineering", "Data Structures", 4).
		AddRow("e2", "400654321", "201", time.Now(), "Sara Ahmadi", "Mathematics", "Data Structures", 4)
	mock.ExpectQuery("SELECT e\\.id, e\\.student_id, e\\.course_code, e\\.joined_at").
		WithArgs("201").
		WillReturnRows(rows)

	roster, err := repo.RosterByCourse(context.Background(), "201")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Ali Mohammadi", roster[0].StudentName)
	assert.Equal(t, 4, roster[1].Units)
	assert.NoError(t, mock.ExpectationsWereMet())
}
