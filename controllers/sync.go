package controllers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"olympiad-api/services"
	"olympiad-api/utils"
)

// SyncController triggers the student synchronization against the external
// student-information system. The client is injected at wiring time.
type SyncController struct {
	Client *services.SISClient
}

type syncRequest struct {
	BranchID   int    `json:"branch_id"`
	SchoolYear int    `json:"school_year"`
	Situation  string `json:"situation"`
}

func (sc *SyncController) SyncStudents(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "sync.run"); !ok {
			return
		}

		var req syncRequest
		if r.Body != nil {
			// Filters are optional; an empty body syncs everything.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		report, err := services.NewSyncService(db, sc.Client).SyncStudents(services.SISFilters{
			BranchID:   req.BranchID,
			SchoolYear: req.SchoolYear,
			Situation:  req.Situation,
		})
		if err != nil {
			// The whole run rolled back; nothing was partially merged.
			utils.RespondStorageError(w, "student synchronization failed", err)
			return
		}

		utils.ResponseJSONStatus(w, http.StatusOK, report, "Synchronization finished")
	}
}
