package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"

	"olympiad-api/models"
	"olympiad-api/utils"
)

func openUserTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE roles (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, level INTEGER NOT NULL);
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		document TEXT,
		phone TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		last_access_at TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	mustExecSQL(t, db, "INSERT INTO roles (name, level) VALUES ('Administrador', 1), ('Professor', 3)")
	mustExecSQL(t, db, "INSERT INTO users (role_id, full_name, email) VALUES (1, 'Admin', 'admin@escola.br')")
	mustExecSQL(t, db, "INSERT INTO users (role_id, full_name, email) VALUES (2, 'Professor', 'prof@escola.br')")
	return db
}

func mustExecSQL(t *testing.T, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(models.User{
		ID:          1,
		Email:       "admin@escola.br",
		FullName:    "Admin",
		RoleLevel:   1,
		Permissions: []string{"users.manage"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func userRouter(db *sql.DB) *mux.Router {
	uc := UserController{}
	r := mux.NewRouter()
	r.HandleFunc("/api/usuarios/{id}", uc.DeleteUser(db)).Methods("DELETE")
	r.HandleFunc("/api/usuarios/{id}", uc.GetUser(db)).Methods("GET")
	r.HandleFunc("/api/usuarios/{id}", uc.UpdateUser(db)).Methods("PUT")
	return r
}

func TestDeleteUserRejectsSelfDeletion(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("DELETE", "/api/usuarios/1", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if total != 2 {
		t.Errorf("users = %d, want 2 (nothing deleted)", total)
	}
}

// Deleting a user deactivates the row; it must survive for access logs and
// olympiad responsibility references.
func TestDeleteUserDeactivatesRow(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("DELETE", "/api/usuarios/2", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var active bool
	if err := db.QueryRow("SELECT active FROM users WHERE id = 2").Scan(&active); err != nil {
		t.Fatalf("read user 2: %v (row must still exist)", err)
	}
	if active {
		t.Error("user 2 still active after delete")
	}
}

func TestDeleteUserUnknownIsNotFound(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("DELETE", "/api/usuarios/99", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateUserRejectsTakenEmail(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("PUT", "/api/usuarios/2", strings.NewReader(`{"email":"admin@escola.br"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", rec.Code, rec.Body.String())
	}

	var email string
	if err := db.QueryRow("SELECT email FROM users WHERE id = 2").Scan(&email); err != nil {
		t.Fatalf("read user 2: %v", err)
	}
	if email != "prof@escola.br" {
		t.Errorf("email = %q, want unchanged", email)
	}
}

func TestUpdateUserKeepsOwnEmail(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	// Resubmitting the user's current email is not a conflict.
	req := httptest.NewRequest("PUT", "/api/usuarios/2", strings.NewReader(`{"email":"prof@escola.br"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateUserChangesPassword(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("PUT", "/api/usuarios/2", strings.NewReader(`{"password":"nova-senha"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var hash string
	if err := db.QueryRow("SELECT password_hash FROM users WHERE id = 2").Scan(&hash); err != nil {
		t.Fatalf("read hash: %v", err)
	}
	if !utils.ComparePasswords(hash, []byte("nova-senha")) {
		t.Error("stored hash does not match the new password")
	}
}

func TestUpdateUserRejectsShortPassword(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("PUT", "/api/usuarios/2", strings.NewReader(`{"password":"abc"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteUserRequiresToken(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("DELETE", "/api/usuarios/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestDeleteUserRequiresPermission(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	token, err := utils.GenerateToken(models.User{
		ID: 2, Email: "prof@escola.br", FullName: "Professor", RoleLevel: 3,
		Permissions: []string{"results.manage"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/api/usuarios/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	t.Setenv("SECRET", "test-secret")
	db := openUserTestDB(t)
	router := userRouter(db)

	req := httptest.NewRequest("GET", "/api/usuarios/99", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Error("error response must carry success=false")
	}
}
