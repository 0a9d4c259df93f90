package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/uni-admin/enrollment-api/internal/models"
)

// AdminRepository handles persistence of administrators.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs the repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListAll returns every admin row, used for the mirror rebuild.
func (r *AdminRepository) ListAll(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT username, name, password_hash FROM admins`
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// FindByUsername returns an admin by primary key.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	const query = `SELECT username, name, password_hash FROM admins WHERE username = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		return nil, err
	}
	return &admin, nil
}
