package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uni-admin/enrollment-api/internal/models"
)

// ProfessorRepository handles persistence of professors.
type ProfessorRepository struct {
	db *sqlx.DB
}

// NewProfessorRepository constructs the repository.
func NewProfessorRepository(db *sqlx.DB) *ProfessorRepository {
	return &ProfessorRepository{db: db}
}

// ListAll returns every professor row, used for the mirror rebuild.
func (r *ProfessorRepository) ListAll(ctx context.Context) ([]models.Professor, error) {
	const query = `SELECT id, name, password_hash, department FROM professors`
	var professors []models.Professor
	if err := r.db.SelectContext(ctx, &professors, query); err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	return professors, nil
}

// FindByID returns a professor by primary key.
func (r *ProfessorRepository) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	const query = `SELECT id, name, password_hash, department FROM professors WHERE id = $1`
	var professor models.Professor
	if err := r.db.GetContext(ctx, &professor, query, id); err != nil {
		return nil, err
	}
	return &professor, nil
}
