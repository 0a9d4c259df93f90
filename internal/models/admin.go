package models

// Admin represents an administrative user keyed by username.
type Admin struct {
	Username     string `db:"username" json:"username"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
}
