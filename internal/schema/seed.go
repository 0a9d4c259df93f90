package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type seedProfessor struct {
	id, name, password, department string
}

type seedAdmin struct {
	username, name, password string
}

type seedCourse struct {
	code, name, professor, professorID string
	units, capacity                    int
	schedule, department               string
	classroom, examDate                string
}

type seedStudent struct {
	id, name, password, major, email, entryYear string
}

var (
	seedProfessors = []seedProfessor{
		{"1001", "M. Madadyar", "123456", "Advanced Programming"},
		{"1002", "S. Alaei", "123456", "Physics"},
		{"2001", "F. Esmaili", "123456", "Computer Workshop"},
		{"3001", "N. Salehamin", "123456", "Operating Systems Lab"},
		{"4001", "K. Abbasi", "123456", "Languages"},
		{"5001", "A. Zare", "123456", "Mathematics"},
	}

	seedAdmins = []seedAdmin{
		{"admin", "System Administrator", "admin123"},
		{"admin2", "Education Administrator", "123456"},
		{"supervisor", "Academic Supervisor", "super123"},
	}

	seedCourses = []seedCourse{
		{"101", "Calculus I", "Dr. Ahmadi", "1001", 3, 40, "Sat/Mon 10-12", "Mathematics", "201", "2025-06-10"},
		{"102", "Physics I", "Dr. Rezaei", "1002", 3, 35, "Sun/Tue 8-10", "Physics", "301", "2025-06-12"},
		{"201", "Python Programming", "Eng. Mohammadi", "2001", 3, 30, "Mon/Wed 14-16", "Computer Science", "105", "2025-06-15"},
		{"301", "Computer Architecture", "Dr. Sharifi", "3001", 3, 28, "Sat/Wed 8-10", "Computer Science", "203", "2025-06-18"},
		{"401", "English Language", "Dr. Karimi", "4001", 2, 50, "Sun 16-18", "Languages", "101", "2025-06-22"},
		{"501", "Probability & Statistics", "Dr. Hosseini", "5001", 3, 45, "Mon/Wed 10-12", "Mathematics", "202", "2025-06-26"},
	}

	seedStudents = []seedStudent{
		{"400123456", "Ali Mohammadi", "123456", "Computer Science", "ali@uni.ac.ir", "1400"},
		{"400123457", "Fatemeh Ahmadi", "123456", "Mathematics", "fatemeh@uni.ac.ir", "1400"},
		{"401123458", "Mohammad Rezaei", "123456", "Physics", "mohammad@uni.ac.ir", "1401"},
	}
)

// Seed inserts the bootstrap rows, skipping any whose primary key already
// exists. Seed courses are approved so the sample students can enroll right
// away; only courses created through the API start pending.
func Seed(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, p := range seedProfessors {
		hash, err := hashPassword(p.password)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO professors (id, name, password_hash, department)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, hash, p.department); err != nil {
			return fmt.Errorf("seed professor %s: %w", p.id, err)
		}
	}

	for _, a := range seedAdmins {
		hash, err := hashPassword(a.password)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO admins (username, name, password_hash)
			 VALUES ($1, $2, $3) ON CONFLICT (username) DO NOTHING`,
			a.username, a.name, hash); err != nil {
			return fmt.Errorf("seed admin %s: %w", a.username, err)
		}
	}

	for _, c := range seedCourses {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO courses (course_code, course_name, professor, professor_id, units, capacity,
			                      current_students, schedule, department, classroom, exam_date, status)
			 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, 'approved')
			 ON CONFLICT (course_code) DO NOTHING`,
			c.code, c.name, c.professor, c.professorID, c.units, c.capacity,
			c.schedule, c.department, c.classroom, c.examDate); err != nil {
			return fmt.Errorf("seed course %s: %w", c.code, err)
		}
	}

	for _, s := range seedStudents {
		hash, err := hashPassword(s.password)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO students (id, name, password_hash, major, email, entry_year, total_units)
			 VALUES ($1, $2, $3, $4, $5, $6, 0) ON CONFLICT (id) DO NOTHING`,
			s.id, s.name, hash, s.major, s.email, s.entryYear); err != nil {
			return fmt.Errorf("seed student %s: %w", s.id, err)
		}
	}

	logger.Info("seed data ensured",
		zap.Int("professors", len(seedProfessors)),
		zap.Int("admins", len(seedAdmins)),
		zap.Int("courses", len(seedCourses)),
		zap.Int("students", len(seedStudents)),
	)

	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hash), nil
}
