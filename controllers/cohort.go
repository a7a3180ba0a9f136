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

// Cohort hierarchy: Branch -> Grade -> Class -> Student, plus school years.
// Plain CRUD; these tables only exist to scope enrollment and ranking.

type BranchController struct {
}

func (bc *BranchController) GetBranches(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		rows, err := db.Query("SELECT id, name, abbreviation FROM branches ORDER BY name")
		if err != nil {
			utils.RespondStorageError(w, "failed to list branches", err)
			return
		}
		defer rows.Close()

		branches := []models.Branch{}
		for rows.Next() {
			var b models.Branch
			var abbr sql.NullString
			if err := rows.Scan(&b.ID, &b.Name, &abbr); err != nil {
				utils.RespondStorageError(w, "failed to scan branch", err)
				return
			}
			b.Abbreviation = abbr.String
			branches = append(branches, b)
		}
		utils.ResponseJSONCount(w, branches, len(branches))
	}
}

func (bc *BranchController) CreateBranch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var b models.Branch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Branch name is required"})
			return
		}
		res, err := db.Exec("INSERT INTO branches (name, abbreviation) VALUES (?, ?)", b.Name, b.Abbreviation)
		if err != nil {
			utils.RespondStorageError(w, "failed to create branch", err)
			return
		}
		id, _ := res.LastInsertId()
		b.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, b, "Branch created successfully")
	}
}

func (bc *BranchController) UpdateBranch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid branch id"})
			return
		}
		var b models.Branch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Branch name is required"})
			return
		}
		res, err := db.Exec("UPDATE branches SET name = ?, abbreviation = ? WHERE id = ?", b.Name, b.Abbreviation, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update branch", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Branch not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Branch updated successfully")
	}
}

func (bc *BranchController) DeleteBranch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid branch id"})
			return
		}
		res, err := db.Exec("DELETE FROM branches WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete branch", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Branch not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Branch deleted successfully")
	}
}

type GradeController struct {
}

func (gc *GradeController) GetGrades(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		query := `
			SELECT g.id, g.name, g.branch_id, b.name
			FROM grades g
			INNER JOIN branches b ON g.branch_id = b.id
			WHERE 1=1`
		args := []interface{}{}
		if branchID := r.URL.Query().Get("branch_id"); branchID != "" {
			query += " AND g.branch_id = ?"
			args = append(args, branchID)
		}
		query += " ORDER BY b.name, g.name"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list grades", err)
			return
		}
		defer rows.Close()

		grades := []models.Grade{}
		for rows.Next() {
			var g models.Grade
			if err := rows.Scan(&g.ID, &g.Name, &g.BranchID, &g.BranchName); err != nil {
				utils.RespondStorageError(w, "failed to scan grade", err)
				return
			}
			grades = append(grades, g)
		}
		utils.ResponseJSONCount(w, grades, len(grades))
	}
}

func (gc *GradeController) CreateGrade(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var g models.Grade
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil || g.Name == "" || g.BranchID == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Grade name and branch_id are required"})
			return
		}
		res, err := db.Exec("INSERT INTO grades (name, branch_id) VALUES (?, ?)", g.Name, g.BranchID)
		if err != nil {
			utils.RespondStorageError(w, "failed to create grade", err)
			return
		}
		id, _ := res.LastInsertId()
		g.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, g, "Grade created successfully")
	}
}

func (gc *GradeController) DeleteGrade(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid grade id"})
			return
		}
		res, err := db.Exec("DELETE FROM grades WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete grade", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Grade not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Grade deleted successfully")
	}
}

type ClassController struct {
}

func (cc *ClassController) GetClasses(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		query := `
			SELECT c.id, c.code, c.name, c.grade_id, g.name, c.school_year_id, sy.year
			FROM classes c
			INNER JOIN grades g ON c.grade_id = g.id
			INNER JOIN school_years sy ON c.school_year_id = sy.id
			WHERE 1=1`
		args := []interface{}{}
		if gradeID := r.URL.Query().Get("grade_id"); gradeID != "" {
			query += " AND c.grade_id = ?"
			args = append(args, gradeID)
		}
		if yearID := r.URL.Query().Get("school_year_id"); yearID != "" {
			query += " AND c.school_year_id = ?"
			args = append(args, yearID)
		}
		query += " ORDER BY g.name, c.name"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list classes", err)
			return
		}
		defer rows.Close()

		classes := []models.Class{}
		for rows.Next() {
			var c models.Class
			var code sql.NullString
			if err := rows.Scan(&c.ID, &code, &c.Name, &c.GradeID, &c.GradeName, &c.SchoolYearID, &c.SchoolYear); err != nil {
				utils.RespondStorageError(w, "failed to scan class", err)
				return
			}
			c.Code = code.String
			classes = append(classes, c)
		}
		utils.ResponseJSONCount(w, classes, len(classes))
	}
}

func (cc *ClassController) CreateClass(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var c models.Class
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Name == "" || c.GradeID == 0 || c.SchoolYearID == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Class name, grade_id and school_year_id are required"})
			return
		}
		res, err := db.Exec("INSERT INTO classes (code, name, grade_id, school_year_id) VALUES (?, ?, ?, ?)",
			c.Code, c.Name, c.GradeID, c.SchoolYearID)
		if err != nil {
			utils.RespondStorageError(w, "failed to create class", err)
			return
		}
		id, _ := res.LastInsertId()
		c.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, c, "Class created successfully")
	}
}

func (cc *ClassController) DeleteClass(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid class id"})
			return
		}
		res, err := db.Exec("DELETE FROM classes WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete class", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Class not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Class deleted successfully")
	}
}

type SchoolYearController struct {
}

func (yc *SchoolYearController) GetSchoolYears(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		rows, err := db.Query("SELECT id, year, status FROM school_years ORDER BY year DESC")
		if err != nil {
			utils.RespondStorageError(w, "failed to list school years", err)
			return
		}
		defer rows.Close()

		years := []models.SchoolYear{}
		for rows.Next() {
			var y models.SchoolYear
			if err := rows.Scan(&y.ID, &y.Year, &y.Status); err != nil {
				utils.RespondStorageError(w, "failed to scan school year", err)
				return
			}
			years = append(years, y)
		}
		utils.ResponseJSONCount(w, years, len(years))
	}
}

func (yc *SchoolYearController) CreateSchoolYear(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var y models.SchoolYear
		if err := json.NewDecoder(r.Body).Decode(&y); err != nil || y.Year == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Year is required"})
			return
		}
		if y.Status == "" {
			y.Status = "active"
		}
		res, err := db.Exec("INSERT INTO school_years (year, status) VALUES (?, ?)", y.Year, y.Status)
		if err != nil {
			utils.RespondStorageError(w, "failed to create school year", err)
			return
		}
		id, _ := res.LastInsertId()
		y.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, y, "School year created successfully")
	}
}

func (yc *SchoolYearController) UpdateSchoolYear(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid school year id"})
			return
		}
		var y models.SchoolYear
		if err := json.NewDecoder(r.Body).Decode(&y); err != nil || y.Year == 0 || y.Status == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Year and status are required"})
			return
		}
		res, err := db.Exec("UPDATE school_years SET year = ?, status = ? WHERE id = ?", y.Year, y.Status, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update school year", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "School year not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "School year updated successfully")
	}
}
