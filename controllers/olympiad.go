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

type OlympiadController struct {
}

const olympiadSelect = `
	SELECT o.id, o.name, o.abbreviation, o.year, o.status,
	       o.application_location_id, al.name,
	       o.payment_type_id, pt.description,
	       o.correction_type_id, ct.description,
	       o.responsible_user_id, u.full_name,
	       o.cost_value, o.enrollment_deadline, o.application_date, o.correction_date, o.created_at
	FROM olympiads o
	INNER JOIN users u ON o.responsible_user_id = u.id
	LEFT JOIN application_locations al ON o.application_location_id = al.id
	LEFT JOIN payment_types pt ON o.payment_type_id = pt.id
	LEFT JOIN correction_types ct ON o.correction_type_id = ct.id`

func scanOlympiad(scanner interface{ Scan(...interface{}) error }) (models.Olympiad, error) {
	var o models.Olympiad
	var abbr, location, payment, correction sql.NullString
	var locationID, paymentID, correctionID sql.NullInt64
	var cost sql.NullFloat64
	var deadline, applicationDate, correctionDate sql.NullTime
	err := scanner.Scan(&o.ID, &o.Name, &abbr, &o.Year, &o.Status,
		&locationID, &location, &paymentID, &payment, &correctionID, &correction,
		&o.ResponsibleUserID, &o.ResponsibleName,
		&cost, &deadline, &applicationDate, &correctionDate, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	o.Abbreviation = abbr.String
	o.ApplicationLocationID = int(locationID.Int64)
	o.ApplicationLocation = location.String
	o.PaymentTypeID = int(paymentID.Int64)
	o.PaymentType = payment.String
	o.CorrectionTypeID = int(correctionID.Int64)
	o.CorrectionType = correction.String
	o.CostValue = cost.Float64
	if deadline.Valid {
		o.EnrollmentDeadline = deadline.Time.Format("2006-01-02")
	}
	if applicationDate.Valid {
		o.ApplicationDate = applicationDate.Time.Format("2006-01-02")
	}
	if correctionDate.Valid {
		o.CorrectionDate = correctionDate.Time.Format("2006-01-02")
	}
	return o, nil
}

func (oc *OlympiadController) GetOlympiads(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		query := olympiadSelect + " WHERE 1=1"
		args := []interface{}{}
		if year := r.URL.Query().Get("year"); year != "" {
			query += " AND o.year = ?"
			args = append(args, year)
		}
		if status := r.URL.Query().Get("status"); status != "" {
			query += " AND o.status = ?"
			args = append(args, status)
		}
		query += " ORDER BY o.year DESC, o.application_date DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			utils.RespondStorageError(w, "failed to list olympiads", err)
			return
		}
		defer rows.Close()

		olympiads := []models.Olympiad{}
		for rows.Next() {
			o, err := scanOlympiad(rows)
			if err != nil {
				utils.RespondStorageError(w, "failed to scan olympiad", err)
				return
			}
			olympiads = append(olympiads, o)
		}
		utils.ResponseJSONCount(w, olympiads, len(olympiads))
	}
}

func (oc *OlympiadController) GetOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		row := db.QueryRow(olympiadSelect+" WHERE o.id = ?", id)
		o, err := scanOlympiad(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Olympiad not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch olympiad", err)
			return
		}
		utils.ResponseJSON(w, o)
	}
}

type olympiadRequest struct {
	Name                  string  `json:"name" validate:"required"`
	Abbreviation          string  `json:"abbreviation"`
	Year                  int     `json:"year" validate:"required,gte=2000"`
	Status                string  `json:"status" validate:"omitempty,oneof=planning enrollment_open enrollment_closed held corrected finalized cancelled"`
	ApplicationLocationID int     `json:"application_location_id"`
	PaymentTypeID         int     `json:"payment_type_id"`
	CorrectionTypeID      int     `json:"correction_type_id"`
	CostValue             float64 `json:"cost_value"`
	EnrollmentDeadline    string  `json:"enrollment_deadline"`
	ApplicationDate       string  `json:"application_date"`
	CorrectionDate        string  `json:"correction_date"`
}

func (oc *OlympiadController) CreateOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := requirePermission(w, r, "olympiads.manage")
		if !ok {
			return
		}

		var req olympiadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(req); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}
		if req.Status == "" {
			req.Status = models.OlympiadPlanning
		}

		res, err := db.Exec(`
			INSERT INTO olympiads
			(name, abbreviation, year, status, application_location_id, payment_type_id, correction_type_id,
			 responsible_user_id, cost_value, enrollment_deadline, application_date, correction_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.Name, req.Abbreviation, req.Year, req.Status,
			nullIfZero(req.ApplicationLocationID), nullIfZero(req.PaymentTypeID), nullIfZero(req.CorrectionTypeID),
			auth.UserID, req.CostValue,
			nullIfEmptyString(req.EnrollmentDeadline), nullIfEmptyString(req.ApplicationDate), nullIfEmptyString(req.CorrectionDate))
		if err != nil {
			utils.RespondStorageError(w, "failed to create olympiad", err)
			return
		}
		id, _ := res.LastInsertId()

		utils.ResponseJSONStatus(w, http.StatusCreated, map[string]interface{}{"id": id}, "Olympiad created successfully")
	}
}

// UpdateOlympiad applies a patch. Status moves are explicit but unguarded:
// any status can be set to any other.
func (oc *OlympiadController) UpdateOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "olympiads.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		var patch models.OlympiadPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid request body"})
			return
		}
		if fieldErrs := utils.ValidateStruct(patch); fieldErrs != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Validation failed", Errors: fieldErrs})
			return
		}

		row := db.QueryRow(olympiadSelect+" WHERE o.id = ?", id)
		o, err := scanOlympiad(row)
		if err == sql.ErrNoRows {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Olympiad not found"})
			return
		}
		if err != nil {
			utils.RespondStorageError(w, "failed to fetch olympiad", err)
			return
		}

		patch.Apply(&o)

		_, err = db.Exec(`
			UPDATE olympiads SET
			name = ?, abbreviation = ?, year = ?, status = ?,
			application_location_id = ?, payment_type_id = ?, correction_type_id = ?,
			responsible_user_id = ?, cost_value = ?,
			enrollment_deadline = ?, application_date = ?, correction_date = ?
			WHERE id = ?`,
			o.Name, o.Abbreviation, o.Year, o.Status,
			nullIfZero(o.ApplicationLocationID), nullIfZero(o.PaymentTypeID), nullIfZero(o.CorrectionTypeID),
			o.ResponsibleUserID, o.CostValue,
			nullIfEmptyString(o.EnrollmentDeadline), nullIfEmptyString(o.ApplicationDate), nullIfEmptyString(o.CorrectionDate),
			id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update olympiad", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, o, "Olympiad updated successfully")
	}
}

func (oc *OlympiadController) DeleteOlympiad(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "olympiads.delete"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		res, err := db.Exec("DELETE FROM olympiads WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete olympiad", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Olympiad not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Olympiad deleted successfully")
	}
}

// GetEnrollmentSummary counts the olympiad's enrollments by status.
func (oc *OlympiadController) GetEnrollmentSummary(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid olympiad id"})
			return
		}

		summary, err := services.NewEnrollmentService(db).Summary(id)
		if err != nil {
			utils.RespondStorageError(w, "failed to summarize enrollments", err)
			return
		}
		utils.ResponseJSON(w, summary)
	}
}
