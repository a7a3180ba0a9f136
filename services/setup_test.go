package services

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB builds the relevant slice of the schema in an in-memory sqlite
// database so the services run their real SQL under test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE branches (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, abbreviation TEXT);
	CREATE TABLE school_years (id INTEGER PRIMARY KEY AUTOINCREMENT, year INTEGER NOT NULL, status TEXT NOT NULL DEFAULT 'active');
	CREATE TABLE grades (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, branch_id INTEGER NOT NULL);
	CREATE TABLE classes (id INTEGER PRIMARY KEY AUTOINCREMENT, code TEXT, name TEXT NOT NULL, grade_id INTEGER NOT NULL, school_year_id INTEGER NOT NULL);
	CREATE TABLE persons (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT, birth_date TEXT);
	CREATE TABLE students (id INTEGER PRIMARY KEY AUTOINCREMENT, ra TEXT NOT NULL UNIQUE, situation TEXT NOT NULL DEFAULT 'Matriculado', person_id INTEGER NOT NULL, class_id INTEGER);
	CREATE TABLE medal_tiers (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, priority INTEGER NOT NULL);
	CREATE TABLE olympiads (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, year INTEGER NOT NULL, status TEXT NOT NULL DEFAULT 'planning', responsible_user_id INTEGER NOT NULL DEFAULT 1);
	CREATE TABLE enrollments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		olympiad_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'enrolled',
		notes TEXT,
		enrolled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (olympiad_id, student_id)
	);
	CREATE TABLE results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		enrollment_id INTEGER NOT NULL,
		score REAL NOT NULL,
		medal_tier_id INTEGER,
		rank_position INTEGER,
		notes TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// seedCohort creates one branch/grade/class chain in an active school year
// and returns the class id.
func seedCohort(t *testing.T, db *sql.DB) int {
	t.Helper()
	mustExec(t, db, "INSERT INTO branches (name) VALUES ('Unidade Centro')")
	mustExec(t, db, "INSERT INTO school_years (year, status) VALUES (2026, 'active')")
	mustExec(t, db, "INSERT INTO grades (name, branch_id) VALUES ('9º Ano', 1)")
	res, err := db.Exec("INSERT INTO classes (code, name, grade_id, school_year_id) VALUES ('9A-2026', '9A', 1, 1)")
	if err != nil {
		t.Fatalf("seed class: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

// seedStudent creates a person+student pair and returns the student id.
func seedStudent(t *testing.T, db *sql.DB, name, ra string, classID int) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO persons (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("seed person: %v", err)
	}
	personID, _ := res.LastInsertId()
	res, err = db.Exec("INSERT INTO students (ra, person_id, class_id) VALUES (?, ?, ?)", ra, personID, classID)
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

// seedEnrollment enrolls a student and returns the enrollment id.
func seedEnrollment(t *testing.T, db *sql.DB, olympiadID, studentID int) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO enrollments (olympiad_id, student_id) VALUES (?, ?)", olympiadID, studentID)
	if err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedResult(t *testing.T, db *sql.DB, enrollmentID int, score float64, medalTierID int) int {
	t.Helper()
	var medal interface{}
	if medalTierID != 0 {
		medal = medalTierID
	}
	res, err := db.Exec("INSERT INTO results (enrollment_id, score, medal_tier_id) VALUES (?, ?, ?)", enrollmentID, score, medal)
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedOlympiad(t *testing.T, db *sql.DB, name string) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO olympiads (name, year) VALUES (?, 2026)", name)
	if err != nil {
		t.Fatalf("seed olympiad: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedMedalTiers(t *testing.T, db *sql.DB) {
	t.Helper()
	mustExec(t, db, "INSERT INTO medal_tiers (name, priority) VALUES ('Ouro', 1), ('Prata', 2), ('Bronze', 3)")
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
