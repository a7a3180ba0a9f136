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

// CatalogController serves the flat lookup tables referenced by olympiads:
// application locations, payment types and correction types. The table and
// its name column are fixed at wiring time in main, never taken from the
// request.
type CatalogController struct {
	Table  string
	Column string
}

func (cc *CatalogController) List(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		rows, err := db.Query("SELECT id, " + cc.Column + " FROM " + cc.Table + " ORDER BY " + cc.Column)
		if err != nil {
			utils.RespondStorageError(w, "failed to list "+cc.Table, err)
			return
		}
		defer rows.Close()

		items := []models.CatalogItem{}
		for rows.Next() {
			var item models.CatalogItem
			if err := rows.Scan(&item.ID, &item.Name); err != nil {
				utils.RespondStorageError(w, "failed to scan "+cc.Table, err)
				return
			}
			items = append(items, item)
		}
		utils.ResponseJSONCount(w, items, len(items))
	}
}

func (cc *CatalogController) Create(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var item models.CatalogItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Name is required"})
			return
		}
		res, err := db.Exec("INSERT INTO "+cc.Table+" ("+cc.Column+") VALUES (?)", item.Name)
		if err != nil {
			utils.RespondStorageError(w, "failed to create "+cc.Table+" entry", err)
			return
		}
		id, _ := res.LastInsertId()
		item.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, item, "Created successfully")
	}
}

func (cc *CatalogController) Update(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid id"})
			return
		}
		var item models.CatalogItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.Name == "" {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Name is required"})
			return
		}
		res, err := db.Exec("UPDATE "+cc.Table+" SET "+cc.Column+" = ? WHERE id = ?", item.Name, id)
		if err != nil {
			utils.RespondStorageError(w, "failed to update "+cc.Table+" entry", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Entry not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Updated successfully")
	}
}

func (cc *CatalogController) Delete(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid id"})
			return
		}
		res, err := db.Exec("DELETE FROM "+cc.Table+" WHERE id = ?", id)
		if err != nil {
			utils.RespondStorageError(w, "failed to delete "+cc.Table+" entry", err)
			return
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Entry not found"})
			return
		}
		utils.ResponseJSONStatus(w, http.StatusOK, nil, "Deleted successfully")
	}
}

// MedalTierController manages the ordered medal catalog.
type MedalTierController struct {
}

func (mc *MedalTierController) GetMedalTiers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(w, r); !ok {
			return
		}
		rows, err := db.Query("SELECT id, name, priority FROM medal_tiers ORDER BY priority")
		if err != nil {
			utils.RespondStorageError(w, "failed to list medal tiers", err)
			return
		}
		defer rows.Close()

		tiers := []models.MedalTier{}
		for rows.Next() {
			var t models.MedalTier
			if err := rows.Scan(&t.ID, &t.Name, &t.Priority); err != nil {
				utils.RespondStorageError(w, "failed to scan medal tier", err)
				return
			}
			tiers = append(tiers, t)
		}
		utils.ResponseJSONCount(w, tiers, len(tiers))
	}
}

func (mc *MedalTierController) CreateMedalTier(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePermission(w, r, "catalogs.manage"); !ok {
			return
		}
		var t models.MedalTier
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil || t.Name == "" || t.Priority == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Name and priority are required"})
			return
		}
		res, err := db.Exec("INSERT INTO medal_tiers (name, priority) VALUES (?, ?)", t.Name, t.Priority)
		if err != nil {
			utils.RespondStorageError(w, "failed to create medal tier", err)
			return
		}
		id, _ := res.LastInsertId()
		t.ID = int(id)
		utils.ResponseJSONStatus(w, http.StatusCreated, t, "Medal tier created successfully")
	}
}
