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

type StudentController struct {
}

const studentSelect = `
	SELECT st.id, st.ra, st.situation, st.person_id, p.name, p.email, p.birth_date,
	       c.id, c.name, g.id, g.name, b.id, b.name, sy.year
	FROM students st
	INNER JOIN persons p ON st.person_id = p.id
	LEFT JOIN classes c ON st.class_id = c.id
	LEFT JOIN grades g ON c.grade_id = g.id
	LEFT JOIN branches b ON g.branch_id = b.id
	LEFT JOIN school_years sy ON c.school_year_id = sy.id`

func scanStudent(scanner interface{ Scan(...interface{}) error }) (models.Student, error) {
	var s models.Student
	var email sql.NullString
	var birth sql.NullTime
	var classID, gradeID, branchID, year sql.NullInt64
	var className, gradeName, branchName sql.NullString
	err := scanner.Scan(&s.ID, &s.RA, &s.Situation, &s.PersonID, &s.Name, &email, &birth,
		&classID, &className, &gradeID, &gradeName, &branchID, &branchName, &year)
	if err != nil {
		return s, err
	}
	s.Email = email.String
	if birth.Valid {
		s.BirthDate = birth.Time.Format("2006-01-02")
	}
	s.ClassID = int(classID.Int64)
	s.ClassName = className.String
	s.GradeID = int(gradeID.Int64)
	s.GradeName = gradeName.String
	s.BranchID = int(branchID.Int64)
	s.BranchName = branchName.String
	s.SchoolYear = int(year.Int64)
	return s, nil
}

// GetStudents lists students with cohort filters, search and pagination.
func (sc *StudentController) GetStudents(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}

		where := " WHERE 1=1"
		args := []interface{}{}
		q := r.URL.Query()

		if classID := q.Get("class_id"); classID != "" {
			where += " AND st.class_id = ?"
			args = append(args, classID)
		}
		if gradeID := q.Get("grade_id"); gradeID != "" {
			where += " AND g.id = ?"
			args = append(args, gradeID)
		}
		if branchID := q.Get("branch_id"); branchID != "" {
			where += " AND b.id = ?"
			args = append(args, branchID)
		}
		if situation := q.Get("situation"); situation != "" {
			where += " AND st.situation = ?"
			args = append(args, situation)
		}
		if search := q.Get("search"); search != "" {
			where += " AND (p.name LIKE ? OR st.ra LIKE ?)"
			args = append(args, "%"+search+"%", "%"+search+"%")
		}

		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit < 1 || limit > 200 {
			limit = 50
		}

		var total int
		countQuery := `
			SELECT COUNT(*)
			FROM students st
			INNER JOIN persons p ON st.person_id = p.id
			LEFT JOIN classes c ON st.class_id = c.id
			LEFT JOIN grades g ON c.grade_id = g.id
			LEFT JOIN branches b ON g.branch_id = b.id` + where
		if err := db.QueryRow(countQuery, args...).Scan(&total); err != nil {
			utils.RespondStorageError(w, "failed to count students", err)
			return
		}

		query := studentSelect + where + " ORDER BY p.name ASC LIMIT ? OFFSET ?"
		args = append(args, limit, (page-1)*limit)

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list students", err)
			return
		}
		defer rows.Close()

		students := []models.Student{}
		for rows.Next() {
			s, err := scanStudent(rows)
			if err != nil {
				utils.RespondStorageError(w, "failed to scan student", err)
				return
			}
			students = append(students, s)
		}

		utils.ResponseJSON(w, models.StudentPage{Students: students, Total: total, Page: page, Limit: limit})
	}
}

func (sc *StudentController) GetStudent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid student id"})
			return
		}

		row := db.QueryRow(studentSelect+" WHERE st.id = ?", id)
		student, err := scanStudent(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Student not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch student", err)
			return
		}
		utils.ResponseJSON(w, student)
	}
}

type studentRequest struct {
	RA        string `json:"ra" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	BirthDate string `json:"birth_date"`
	Situation string `json:"situation"`
	ClassID   int    `json:"class_id"`
}

func (sc *StudentController) CreateStudent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}

		var req studentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}
		if req.Situation == "" {
			req.Situation = "Matriculado"
		}

		var existing int
		err := db.QueryRow("SELECT id FROM students WHERE ra = ?", req.RA).Scan(&existing)
		if err == nil {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Registration number already exists"})
			return
		}
		if err != sql.ErrNoRows {
			utils.RespondStorageError(w, "failed to check registration number", err)
			return
		}

		res, err := db.Exec("INSERT INTO persons (name, email, birth_date) VALUES (?, ?, ?)",
			req.Name, nullIfEmptyString(req.Email), nullIfEmptyString(req.BirthDate))
		if err != nil {
			utils.RespondStorageError(w, "failed to create person", err)
			return
		}
		personID, _ := res.LastInsertId()

		res, err = db.Exec("INSERT INTO students (ra, situation, person_id, class_id) VALUES (?, ?, ?, ?)",
			req.RA, req.Situation, personID, nullIfZero(req.ClassID))
		if err != nil {
			utils.RespondStorageError(w, "failed to create student", err)
			return
		}
		id, _ := res.LastInsertId()

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{"id": id, "ra": req.RA}, "Student created successfully")
	}
}

func (sc *StudentController) UpdateStudent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid student id"})
			return
		}

		var req studentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		var personID int
		err = db.QueryRow("SELECT person_id FROM students WHERE id = ?", id).Scan(&personID)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Student not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch student", err)
			return
		}

		if _, err := db.Exec("UPDATE persons SET name = ?, email = ?, birth_date = ? WHERE id = ?",
			req.Name, nullIfEmptyString(req.Email), nullIfEmptyString(req.BirthDate), personID); err != nil {
			utils.RespondStorageError(w, "failed to update person", err)
			return
		}
		if _, err := db.Exec("UPDATE students SET ra = ?, situation = ?, class_id = ? WHERE id = ?",
			req.RA, req.Situation, nullIfZero(req.ClassID), id); err != nil {
			utils.RespondStorageError(w, "failed to update student", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Student updated successfully")
	}
}

func (sc *StudentController) DeleteStudent(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "users.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid student id"})
			return
		}

		res, err := db.Exec("DELETE FROM students WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete student", err)
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Student not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Student deleted successfully")
	}
}

func nullIfEmptyString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
