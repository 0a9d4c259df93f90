package models

// Student represents a learner registered at the university.
// TotalUnits is a derived counter: it always equals the sum of units over the
// student's enrollments in existing courses and is recomputed, never edited.
type Student struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	Major        string `db:"major" json:"major"`
	Email        string `db:"email" json:"email,omitempty"`
	EntryYear    string `db:"entry_year" json:"entry_year"`
	TotalUnits   int    `db:"total_units" json:"total_units"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	Search    string
	Major     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail pairs a student with the codes of the courses they hold.
type StudentDetail struct {
	Student
	Courses []string `json:"courses"`
}
