package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/transitkit/fuelcard-backoffice/internal/middleware"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// tenantFromRequest resolves the tenant scope from the authenticated user's
// claims. Every data access below the handlers is keyed by this value.
func tenantFromRequest(w http.ResponseWriter, r *http.Request) (string, *models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok || claims.TenantID == "" {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return "", nil, false
	}
	return claims.TenantID, claims, true
}
