package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"olympiad-api/models"
	"olympiad-api/utils"
)

type UserController struct {
}

func (uc *UserController) GetUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}

		query := `
			SELECT u.id, u.role_id, u.full_name, u.email, u.document, u.phone, u.active, u.last_access_at, r.name, r.level
			FROM users u
			INNER JOIN roles r ON u.role_id = r.id
			WHERE 1=1`
		args := []interface{}{}

		if roleID := r.URL.Query().Get("role_id"); roleID != "" {
			query += " AND u.role_id = ?"
			args = append(args, roleID)
		}
		if search := r.URL.Query().Get("search"); search != "" {
			query += " AND (u.full_name LIKE ? OR u.email LIKE ?)"
			args = append(args, "%"+search+"%", "%"+search+"%")
		}
		query += " ORDER BY u.full_name ASC"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list users", err)
			return
		}
		defer rows.Close()

		users := []models.User{}
		for rows.Next() {
			var user models.User
			var document, phone sql.NullString
			var lastAccess sql.NullTime
			if err := rows.Scan(&user.ID, &user.RoleID, &user.FullName, &user.Email,
				&document, &phone, &user.Active, &lastAccess, &user.RoleName, &user.RoleLevel); err != nil {
				utils.RespondStorageError(w, "failed to scan user", err)
				return
			}
			user.Document = document.String
			user.Phone = phone.String
			if lastAccess.Valid {
				user.LastAccessAt = &lastAccess.Time
			}
			users = append(users, user)
		}

		utils.ResponseJSONCount(w, users, len(users))
	}
}

func (uc *UserController) GetUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid user id"})
			return
		}

		user, err := fetchUser(db, id)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "User not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch user", err)
			return
		}
		utils.ResponseJSON(w, user)
	}
}

// UpdateUser applies a patch: only the fields present in the payload change.
func (uc *UserController) UpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid user id"})
			return
		}

		var patch models.UserPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(patch); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		if patch.Email != nil {
			var other int
			err := db.QueryRow("SELECT id FROM users WHERE email = ? AND id != ?", *patch.Email, id).Scan(&other)
			if err == nil {
				utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Email already registered"})
				return
			}
			if err != sql.ErrNoRows {
				utils.RespondStorageError(w, "failed to check email", err)
				return
			}
		}

		user, err := fetchUser(db, id)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "User not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch user", err)
			return
		}

		patch.Apply(&user)

		_, err = db.Exec(`
			UPDATE users SET role_id = ?, full_name = ?, email = ?, document = ?, phone = ?, active = ?
			WHERE id = ?`,
			user.RoleID, user.FullName, user.Email, user.Document, user.Phone, user.Active, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update user", err)
			return
		}

		if patch.Password != nil {
			hash, err := utils.HashPassword(*patch.Password)
			if err != nil {
				utils.RespondStorageError(w, "failed to hash password", err)
				return
			}
			if _, err := db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hash, id); err != nil {
				utils.RespondStorageError(w, "failed to update password", err)
				return
			}
		}

		utils.ResponseJSONStatus(w, http.StatusOK, user, "User updated successfully")
	}
}

// DeleteUser deactivates a user instead of removing the row; access logs and
// olympiad responsibility keep pointing at a real record. Deleting your own
// account is always rejected, regardless of role.
func (uc *UserController) DeleteUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := requirePermission(w, r, "users.manage")
		if !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid user id"})
			return
		}
		if id == auth.UserID {
			utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "You cannot delete your own account"})
			return
		}

		var exists int
		err = db.QueryRow("SELECT id FROM users WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "User not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch user", err)
			return
		}

		if _, err := db.Exec("UPDATE users SET active = ? WHERE id = ?", false, id); err != nil {
			utils.RespondStorageError(w, "failed to deactivate user", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, nil, "User deactivated successfully")
	}
}

func fetchUser(db *sql.DB, id int) (models.User, error) {
	var user models.User
	var document, phone sql.NullString
	var lastAccess sql.NullTime
	err := db.QueryRow(`
		SELECT u.id, u.role_id, u.full_name, u.email, u.document, u.phone, u.active, u.last_access_at, r.name, r.level
		FROM users u
		INNER JOIN roles r ON u.role_id = r.id
		WHERE u.id = ?`,
		id).Scan(&user.ID, &user.RoleID, &user.FullName, &user.Email,
		&document, &phone, &user.Active, &lastAccess, &user.RoleName, &user.RoleLevel)
	if err != nil {
		return user, err
	}
	user.Document = document.String
	user.Phone = phone.String
	if lastAccess.Valid {
		user.LastAccessAt = &lastAccess.Time
	}
	return user, nil
}
