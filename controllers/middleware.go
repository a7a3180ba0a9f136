package controllers

import (
	"net/http"

	"olympiad-api/models"
	"olympiad-api/utils"
)

// authenticate rejects the request with 401 unless it carries a valid
// bearer token. Returns the caller's identity snapshot.
func authenticate(w http.ResponseWriter, r *http.Request) (utils.AuthContext, bool) {
	auth, err := utils.VerifyToken(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, models.Error{Message: "Unauthorized"})
		return auth, false
	}
	return auth, true
}

// requirePermission authenticates and then evaluates the one policy check
// every mutating route goes through. 403 when the token's permission
// snapshot lacks the named permission.
func requirePermission(w http.ResponseWriter, r *http.Request, permission string) (utils.AuthContext, bool) {
	auth, ok := authenticate(w, r)
	if !ok {
		return auth, false
	}
	if !auth.HasPermission(permission) {
		utils.RespondWithError(w, http.StatusForbidden, models.Error{Message: "Access denied. Insufficient permission."})
		return auth, false
	}
	return auth, true
}
