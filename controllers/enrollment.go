package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"olympiad-api/models"
	"olympiad-api/services"
	"olympiad-api/utils"
)

type EnrollmentController struct {
}

const enrollmentSelect = `
	SELECT e.id, e.olympiad_id, o.name, e.student_id, p.name, st.ra,
	       g.name, c.name, b.name, e.status, e.notes, e.enrolled_at
	FROM enrollments e
	INNER JOIN olympiads o ON e.olympiad_id = o.id
	INNER JOIN students st ON e.student_id = st.id
	INNER JOIN persons p ON st.person_id = p.id
	LEFT JOIN classes c ON st.class_id = c.id
	LEFT JOIN grades g ON c.grade_id = g.id
	LEFT JOIN branches b ON g.branch_id = b.id`

func scanEnrollment(scanner interface{ Scan(...interface{}) error }) (models.Enrollment, error) {
	var e models.Enrollment
	var grade, class, branch, notes sql.NullString
	err := scanner.Scan(&e.ID, &e.OlympiadID, &e.OlympiadName, &e.StudentID, &e.StudentName, &e.StudentRA,
		&grade, &class, &branch, &e.Status, &notes, &e.EnrolledAt)
	if err != nil {
		return e, err
	}
	e.GradeName = grade.String
	e.ClassName = class.String
	e.BranchName = branch.String
	e.Notes = notes.String
	return e, nil
}

func (ec *EnrollmentController) GetEnrollments(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		query := enrollmentSelect + " WHERE 1=1"
		args := []interface{}{}
		if olympiadID := r.URL.Query().Get("olympiad_id"); olympiadID != "" {
			query += " AND e.olympiad_id = ?"
			args = append(args, olympiadID)
		}
		if studentID := r.URL.Query().Get("student_id"); studentID != "" {
			query += " AND e.student_id = ?"
			args = append(args, studentID)
		}
		if status := r.URL.Query().Get("status"); status != "" {
			query += " AND e.status = ?"
			args = append(args, status)
		}
		query += " ORDER BY e.enrolled_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list enrollments", err)
			return
		}
		defer rows.Close()

		enrollments := []models.Enrollment{}
		for rows.Next() {
			e, err := scanEnrollment(rows)
			if err != nil {
				utils.RespondStorageError(w, "failed to scan enrollment", err)
				return
			}
			enrollments = append(enrollments, e)
		}
		utils.ResponseJSONCount(w, enrollments, len(enrollments))
	}
}

func (ec *EnrollmentController) GetEnrollment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid enrollment id"})
			return
		}

		row := db.QueryRow(enrollmentSelect+" WHERE e.id = ?", id)
		e, err := scanEnrollment(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Enrollment not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch enrollment", err)
			return
		}
		utils.ResponseJSON(w, e)
	}
}

type enrollmentRequest struct {
	OlympiadID int    `json:"olympiad_id" validate:"required,gt=0"`
	StudentID  int    `json:"student_id" validate:"required,gt=0"`
	Status     string `json:"status" validate:"omitempty,oneof=enrolled confirmed present absent cancelled"`
	Notes      string `json:"notes"`
}

// CreateEnrollment enrolls one student. A duplicate (olympiad, student)
// pair is a conflict, unlike the batch path where it is a recorded skip.
func (ec *EnrollmentController) CreateEnrollment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "enrollments.manage"); !ok {
			return
		}

		var req enrollmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		id, err := services.NewEnrollmentService(db).Create(req.OlympiadID, req.StudentID, req.Status, req.Notes)
		if err == services.ErrConflict {
			utils.RespondWithError(w, http.StatusConflict, models.Error{Message: "Student is already enrolled in this olympiad"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to create enrollment", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{"id": id}, "Enrollment created successfully")
	}
}

type batchEnrollmentRequest struct {
	OlympiadID int    `json:"olympiad_id" validate:"required,gt=0"`
	Type       string `json:"type" validate:"required,oneof=alunos turma serie"`
	StudentIDs []int  `json:"student_ids"`
	ClassID    int    `json:"class_id"`
	GradeID    int    `json:"grade_id"`
	BranchID   int    `json:"branch_id"`
}

// CreateBatch handles the three bulk-enrollment shapes: an explicit student
// list, a whole class, or a grade within a branch. The batch envelope always
// succeeds; per-item outcomes carry the skips.
func (ec *EnrollmentController) CreateBatch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "enrollments.manage"); !ok {
			return
		}

		var req batchEnrollmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		svc := services.NewEnrollmentService(db)
		var outcome models.BatchEnrollmentResult
		var err error

		switch req.Type {
		case "alunos":
			if len(req.StudentIDs) == 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "student_ids must be a non-empty list"})
				return
			}
			outcome, err = svc.EnrollStudents(req.OlympiadID, req.StudentIDs, models.EnrollmentEnrolled)
		case "turma":
			if req.ClassID == 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "class_id is required for type turma"})
				return
			}
			outcome, err = svc.EnrollByClass(req.OlympiadID, req.ClassID)
		case "serie":
			if req.GradeID == 0 || req.BranchID == 0 {
				utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "grade_id and branch_id are required for type serie"})
				return
			}
			outcome, err = svc.EnrollByGrade(req.OlympiadID, req.GradeID, req.BranchID)
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to process batch enrollment", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusCreated, outcome, "Batch enrollment processed")
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=enrolled confirmed present absent cancelled"`
}

func (ec *EnrollmentController) UpdateStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "enrollments.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid enrollment id"})
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		res, err := db.Exec("UPDATE enrollments SET status = ? WHERE id = ?", req.Status, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update enrollment", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Enrollment not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Enrollment status updated")
	}
}

// CancelEnrollment marks one enrollment cancelled. The row is kept so the
// enrollment history and any entered result stay intact.
func (ec *EnrollmentController) CancelEnrollment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "enrollments.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid enrollment id"})
			return
		}

		res, err := db.Exec("UPDATE enrollments SET status = ? WHERE id = ?", models.EnrollmentCancelled, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to cancel enrollment", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Enrollment not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Enrollment cancelled")
	}
}

type deleteBatchRequest struct {
	IDs []int `json:"ids" validate:"required,min=1"`
}

// DeleteBatch removes several enrollments at once. Ids that do not exist
// are simply not counted; the call succeeds regardless.
func (ec *EnrollmentController) DeleteBatch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "enrollments.manage"); !ok {
			return
		}

		var req deleteBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		deleted, err := services.NewEnrollmentService(db).DeleteBatch(req.IDs)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete enrollments", err)
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, map[string]int{"deleted": deleted}, "Enrollments deleted")
	}
}
