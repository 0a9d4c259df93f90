package schema

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSchemaMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func expectBaseTables(mock sqlmock.Sqlmock) {
	for range baseTables {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestMigrateFreshDatabase(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	expectBaseTables(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectExec("ALTER TABLE courses ADD COLUMN IF NOT EXISTS status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Migrate(context.Background(), db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateIsIdempotentAtCurrentVersion(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	expectBaseTables(mock)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(CurrentVersion))

	require.NoError(t, Migrate(context.Background(), db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVersion(t *testing.T) {
	db, mock, cleanup := newSchemaMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	version, err := Version(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestSupportsStatus(t *testing.T) {
	assert.False(t, SupportsStatus(0))
	assert.False(t, SupportsStatus(1))
	assert.True(t, SupportsStatus(2))
	assert.True(t, SupportsStatus(3))
}
