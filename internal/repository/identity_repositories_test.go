package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfessorRepositoryListAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfessorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "password_hash", "department"}).
		AddRow("1001", "M. Madadyar", "hash", "Advanced Programming").
		AddRow("1002", "S. Alaei", "hash", "Physics")
	mock.ExpectQuery("SELECT id, name, password_hash, department FROM professors").
		WillReturnRows(rows)

	professors, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, professors, 2)

	mock.ExpectQuery("SELECT id, name, password_hash, department FROM professors WHERE").
		WithArgs("1001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "password_hash", "department"}).
			AddRow("1001", "M. Madadyar", "hash", "Advanced Programming"))

	professor, err := repo.FindByID(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "M. Madadyar", professor.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryListAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	rows := sqlmock.NewRows([]string{"username", "name", "password_hash"}).
		AddRow("admin", "System Administrator", "hash")
	mock.ExpectQuery("SELECT username, name, password_hash FROM admins").
		WillReturnRows(rows)

	admins, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	mock.ExpectQuery("SELECT username, name, password_hash FROM admins WHERE").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"username", "name", "password_hash"}).
			AddRow("admin", "System Administrator", "hash"))

	admin, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "System Administrator", admin.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
