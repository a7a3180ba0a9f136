package controllers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"olympiad-api/models"
	"olympiad-api/services"
	"olympiad-api/utils"
)

type ResultController struct {
}

const resultSelect = `
	SELECT r.id, r.enrollment_id, e.olympiad_id, o.name, e.student_id, p.name, st.ra,
	       r.score, r.medal_tier_id, mt.name, r.rank_position, r.notes,
	       c.name, g.name, b.name, r.created_at
	FROM results r
	INNER JOIN enrollments e ON r.enrollment_id = e.id
	INNER JOIN olympiads o ON e.olympiad_id = o.id
	INNER JOIN students st ON e.student_id = st.id
	INNER JOIN persons p ON st.person_id = p.id
	LEFT JOIN medal_tiers mt ON r.medal_tier_id = mt.id
	LEFT JOIN classes c ON st.class_id = c.id
	LEFT JOIN grades g ON c.grade_id = g.id
	LEFT JOIN branches b ON g.branch_id = b.id`

func scanResult(scanner interface{ Scan(...interface{}) error }) (models.Result, error) {
	var res models.Result
	var medalID, rank sql.NullInt64
	var medal, notes, class, grade, branch sql.NullString
	err := scanner.Scan(&res.ID, &res.EnrollmentID, &res.OlympiadID, &res.OlympiadName,
		&res.StudentID, &res.StudentName, &res.StudentRA,
		&res.Score, &medalID, &medal, &rank, &notes, &class, &grade, &branch, &res.CreatedAt)
	if err != nil {
		return res, err
	}
	res.MedalTierID = int(medalID.Int64)
	res.MedalTier = medal.String
	res.Rank = int(rank.Int64)
	res.Notes = notes.String
	res.ClassName = class.String
	res.GradeName = grade.String
	res.BranchName = branch.String
	return res, nil
}

func (rc *ResultController) GetResults(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		query := resultSelect + " WHERE 1=1"
		args := []interface{}{}
		if olympiadID := r.URL.Query().Get("olympiad_id"); olympiadID != "" {
			query += " AND e.olympiad_id = ?"
			args = append(args, olympiadID)
		}
		if studentID := r.URL.Query().Get("student_id"); studentID != "" {
			query += " AND e.student_id = ?"
			args = append(args, studentID)
		}
		if medalTierID := r.URL.Query().Get("medal_tier_id"); medalTierID != "" {
			query += " AND r.medal_tier_id = ?"
			args = append(args, medalTierID)
		}
		query += " ORDER BY r.rank_position ASC, r.score DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list results", err)
			return
		}
		defer rows.Close()

		results := []models.Result{}
		for rows.Next() {
			res, err := scanResult(rows)
			if err != nil {
				utils.RespondStorageError(w, "failed to scan result", err)
				return
			}
			results = append(results, res)
		}
		utils.ResponseJSONCount(w, results, len(results))
	}
}

func (rc *ResultController) GetResult(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid result id"})
			return
		}

		row := db.QueryRow(resultSelect+" WHERE r.id = ?", id)
		res, err := scanResult(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Result not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch result", err)
			return
		}
		utils.ResponseJSON(w, res)
	}
}

func (rc *ResultController) CreateResult(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "results.manage"); !ok {
			return
		}

		var req services.ResultEntry
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		var enrollmentExists int
		err := db.QueryRow("SELECT id FROM enrollments WHERE id = ?", req.EnrollmentID).Scan(&enrollmentExists)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Enrollment not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to check enrollment", err)
			return
		}

		res, err := db.Exec(
			"INSERT INTO results (enrollment_id, score, medal_tier_id, notes) VALUES (?, ?, ?, ?)",
			req.EnrollmentID, req.Score, nullIfZero(req.MedalTierID), req.Notes)
		if err != nil {
			utils.RespondStorageError(w, "failed to create result", err)
			return
		}
		id, _ := res.LastInsertId()

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{"id": id}, "Result entered successfully")
	}
}

type batchResultRequest struct {
	Results []services.ResultEntry `json:"results" validate:"required,min=1,dive"`
}

func (rc *ResultController) CreateBatch(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "results.manage"); !ok {
			return
		}

		var req batchResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		outcome, err := services.NewResultService(db).CreateBatch(req.Results)
		if err != nil {
			utils.RespondStorageError(w, "failed to process batch results", err)
			return
		}
		utils.ResponseJSONStatus(w, http.StatusCreated, outcome,
			fmt.Sprintf("%d results entered successfully", outcome.Inserted))
	}
}

// UpdateResult applies a patch: only the fields present in the payload
// change. The stored rank is untouched; it only moves on recomputation.
func (rc *ResultController) UpdateResult(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "results.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid result id"})
			return
		}

		var patch models.ResultPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(patch); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		row := db.QueryRow(resultSelect+" WHERE r.id = ?", id)
		res, err := scanResult(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Result not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch result", err)
			return
		}

		patch.Apply(&res)

		_, err = db.Exec("UPDATE results SET score = ?, medal_tier_id = ?, notes = ? WHERE id = ?",
			res.Score, nullIfZero(res.MedalTierID), res.Notes, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update result", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, res, "Result updated successfully")
	}
}

func (rc *ResultController) DeleteResult(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "results.delete"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid result id"})
			return
		}

		res, err := db.Exec("DELETE FROM results WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete result", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Result not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Result deleted successfully")
	}
}

// CalculateClassifications recomputes every rank of the olympiad in one
// atomic pass and reports how many results were processed.
func (rc *ResultController) CalculateClassifications(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "results.classify"); !ok {
			return
		}
		olympiadID, err := strconv.Atoi(mux.Vars(r)["idOlimpiada"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		processed, err := services.NewRankingService(db).ComputeClassifications(olympiadID)
		if err != nil {
			utils.RespondStorageError(w, "failed to compute classifications", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, map[string]int{"processed": processed},
			fmt.Sprintf("Classifications updated for %d results", processed))
	}
}

func (rc *ResultController) GetRankingGeneral(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		olympiadID, err := strconv.Atoi(mux.Vars(r)["idOlimpiada"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		ranking, err := services.NewRankingService(db).RankingGeneral(olympiadID)
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch ranking", err)
			return
		}
		utils.ResponseJSONCount(w, ranking, len(ranking))
	}
}

func (rc *ResultController) GetRankingBySeries(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		vars := mux.Vars(r)
		olympiadID, err := strconv.Atoi(vars["idOlimpiada"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}
		gradeID, err := strconv.Atoi(vars["idSerie"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid grade id"})
			return
		}

		ranking, err := services.NewRankingService(db).RankingBySeries(olympiadID, gradeID)
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch ranking", err)
			return
		}
		utils.ResponseJSONCount(w, ranking, len(ranking))
	}
}

// GetMedalists lists the medal-carrying results. An empty list is a normal
// response, not an error.
func (rc *ResultController) GetMedalists(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		olympiadID, err := strconv.Atoi(mux.Vars(r)["idOlimpiada"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		medalists, err := services.NewRankingService(db).Medalists(olympiadID)
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch medalists", err)
			return
		}
		utils.ResponseJSONCount(w, medalists, len(medalists))
	}
}
