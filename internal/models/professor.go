package models

// Professor represents a course instructor.
type Professor struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Department   string `db:"department" json:"department"`
}
