package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"olympiad-api/models"
	"olympiad-api/utils"
)

type AuthController struct {
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	RoleID   int    `json:"role_id" validate:"required,gt=0"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// Login verifies the password and issues the session token. Every attempt,
// successful or not, is appended to the access log; the log is never read
// back by the API.
func (ac *AuthController) Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		var user models.User
		var passwordHash string
		err := db.QueryRow(`
			SELECT u.id, u.role_id, u.full_name, u.email, u.password_hash, u.active, r.name, r.level
			FROM users u
			INNER JOIN roles r ON u.role_id = r.id
			WHERE u.email = ?`,
			req.Email).Scan(&user.ID, &user.RoleID, &user.FullName, &user.Email, &passwordHash, &user.Active, &user.RoleName, &user.RoleLevel)
		if err == sql.ErrNoRows {
			logAccess(db, r, nil, "failed_unknown_user")
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid email or password"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch user", err)
			return
		}
		if !user.Active {
			logAccess(db, r, &user.ID, "failed_inactive_user")
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid email or password"})
			return
		}
		if !utils.ComparePasswords(passwordHash, []byte(req.Password)) {
			logAccess(db, r, &user.ID, "failed_wrong_password")
			utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Invalid email or password"})
			return
		}

		permissions, err := userPermissions(db, user.RoleID)
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch permissions", err)
			return
		}
		user.Permissions = permissions

		token, err := utils.GenerateToken(user, 8*time.Hour)
		if err != nil {
			utils.RespondStorageError(w, "failed to issue token", err)
			return
		}

		if _, err := db.Exec("UPDATE users SET last_access_at = ? WHERE id = ?", time.Now(), user.ID); err != nil {
			log.WithError(err).Warn("failed to update last access")
		}
		logAccess(db, r, &user.ID, "login")

		utils.ResponseJSON(w, map[string]interface{}{"token": token, "user": user})
	}
}

// Register creates a new user account. Restricted to user managers.
func (ac *AuthController) Register(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		var existing int
		err := db.QueryRow("SELECT id FROM users WHERE email = ?", req.Email).Scan(&existing)
		if err == nil {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Email already registered"})
			return
		}
		if err != sql.ErrNoRows {
			utils.RespondStorageError(w, "failed to check email", err)
			return
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			utils.RespondStorageError(w, "failed to hash password", err)
			return
		}

		res, err := db.Exec(`
			INSERT INTO users (role_id, full_name, email, password_hash, document, phone)
			VALUES (?, ?, ?, ?, ?, ?)`,
			req.RoleID, req.FullName, req.Email, hash, req.Document, req.Phone)
		if err != nil {
			utils.RespondStorageError(w, "failed to create user", err)
			return
		}
		id, _ := res.LastInsertId()

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{
			"id": id, "full_name": req.FullName, "email": req.Email,
		}, "User created successfully")
	}
}

// GetMe returns the authenticated user's current record, re-read from
// storage (the token only carries the issuance-time snapshot).
func (ac *AuthController) GetMe(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authenticate(w, r)
		if !ok {
			return
		}

		var user models.User
		var document, phone sql.NullString
		var lastAccess sql.NullTime
		err := db.QueryRow(`
			SELECT u.id, u.role_id, u.full_name, u.email, u.document, u.phone, u.active, u.last_access_at, r.name, r.level
			FROM users u
			INNER JOIN roles r ON u.role_id = r.id
			WHERE u.id = ?`,
			auth.UserID).Scan(&user.ID, &user.RoleID, &user.FullName, &user.Email,
			&document, &phone, &user.Active, &lastAccess, &user.RoleName, &user.RoleLevel)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "User not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch user", err)
			return
		}
		user.Document = document.String
		user.Phone = phone.String
		if lastAccess.Valid {
			user.LastAccessAt = &lastAccess.Time
		}

		permissions, err := userPermissions(db, user.RoleID)
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch permissions", err)
			return
		}
		user.Permissions = permissions

		utils.ResponseJSON(w, user)
	}
}

// Logout only appends the access log entry; the token itself stays valid
// until expiry.
func (ac *AuthController) Logout(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := authenticate(w, r)
		if !ok {
			return
		}
		logAccess(db, r, &auth.UserID, "logout")
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Logged out")
	}
}

func userPermissions(db *sql.DB, roleID int) ([]string, error) {
	rows, err := db.Query(`
		SELECT p.name FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = ?
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}

// logAccess appends one row to the append-only access log. Failures are
// logged and swallowed; auditing must not break the login flow.
func logAccess(db *sql.DB, r *http.Request, userID *int, action string) {
	var uid interface{}
	if userID != nil {
		uid = *userID
	}
	_, err := db.Exec(
		"INSERT INTO access_logs (id, user_id, ip, user_agent, action) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), uid, utils.ClientIP(r), r.UserAgent(), action)
	if err != nil {
		log.WithError(err).WithField("action", action).Warn("failed to write access log")
	}
}
