package handlers

import (
	"net/http"
	"strconv"

	"github.com/transitkit/fuelcard-backoffice/internal/analytics"
	"github.com/transitkit/fuelcard-backoffice/internal/budget"
	"github.com/transitkit/fuelcard-backoffice/internal/reconcile"
)

// ReportsHandler exposes the read-only reconciliation, budget and analytics
// reports. All three recompute from persisted transactions on every request.
type ReportsHandler struct {
	classifier *reconcile.Classifier
	projector  *budget.Projector
	aggregator *analytics.Aggregator
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(classifier *reconcile.Classifier, projector *budget.Projector, aggregator *analytics.Aggregator) *ReportsHandler {
	return &ReportsHandler{classifier: classifier, projector: projector, aggregator: aggregator}
}

// Reconciliation handles GET /api/fuel/reconciliation?start&end. The date
// range defaults to the trailing 30 days; both bounds are inclusive
// calendar dates.
func (h *ReportsHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	from, to, err := dateRangeFromQuery(r, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.classifier.Classify(r.Context(), tenantID, from, to)
	if err != nil {
		http.Error(w, "Failed to classify transactions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Budget handles GET /api/fuel/budget?card_id. Without card_id the
// projection covers the whole tenant.
func (h *ReportsHandler) Budget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	projection, err := h.projector.Project(r.Context(), tenantID, r.URL.Query().Get("card_id"))
	if err != nil {
		http.Error(w, "Failed to compute projection", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

// Analytics handles GET /api/fuel/analytics?months, defaulting to 12
// trailing calendar months.
func (h *ReportsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	months := 12
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			http.Error(w, "months must be between 1 and 60", http.StatusBadRequest)
			return
		}
		months = n
	}

	report, err := h.aggregator.Aggregate(r.Context(), tenantID, months)
	if err != nil {
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
