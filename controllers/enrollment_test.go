package controllers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"olympiad-api/models"
	"olympiad-api/utils"
)

func openEnrollmentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE enrollments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		olympiad_id INTEGER NOT NULL,
		student_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'enrolled',
		notes TEXT,
		enrolled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (olympiad_id, student_id)
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	mustExecSQL(t, db, "INSERT INTO enrollments (olympiad_id, student_id) VALUES (1, 1)")
	return db
}

func enrollmentRouter(db *sql.DB) *mux.Router {
	ec := EnrollmentController{}
	r := mux.NewRouter()
	r.HandleFunc("/api/inscricoes/{id}", ec.CancelEnrollment(db)).Methods("DELETE")
	return r
}

func enrollmentManagerToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(models.User{
		ID:          1,
		Email:       "coord@escola.br",
		FullName:    "Coordenadora",
		RoleLevel:   2,
		Permissions: []string{"enrollments.manage"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// Cancelling keeps the row: history and entered results stay attached.
func TestCancelEnrollmentMarksStatusCancelled(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openEnrollmentTestDB(t)
	router := enrollmentRouter(db)

	req := httptest.NewRequest("DELETE", "/api/inscricoes/1", nil)
	req.Header.Set("Authorization", "Bearer "+enrollmentManagerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var status string
	if err := db.QueryRow("SELECT status FROM enrollments WHERE id = 1").Scan(&status); err != nil {
		t.Fatalf("read enrollment: %v (row must still exist)", err)
	}
	if status != models.EnrollmentCancelled {
		t.Errorf("status = %q, want %q", status, models.EnrollmentCancelled)
	}
}

func TestCancelEnrollmentUnknownIsNotFound(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openEnrollmentTestDB(t)
	router := enrollmentRouter(db)

	req := httptest.NewRequest("DELETE", "/api/inscricoes/99", nil)
	req.Header.Set("Authorization", "Bearer "+enrollmentManagerToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
