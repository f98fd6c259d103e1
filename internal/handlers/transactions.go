package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/importer"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// TransactionHandler handles single manual transaction entry and listing.
// Manual entries go through the same validation and dedup discipline as
// bulk import so the two paths cannot diverge.
type TransactionHandler struct {
	coordinator *importer.Coordinator
	txs         db.TransactionCollection
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(coordinator *importer.Coordinator, txs db.TransactionCollection) *TransactionHandler {
	return &TransactionHandler{coordinator: coordinator, txs: txs}
}

// transactionRequest is the manual-entry payload.
type transactionRequest struct {
	CardID        string   `json:"card_id"`
	Date          string   `json:"date"` // "2006-01-02"
	TimeOfDay     string   `json:"time_of_day"`
	Litres        *float64 `json:"litres"`
	PricePerLitre *float64 `json:"price_per_litre"`
	TotalCost     *float64 `json:"total_cost"`
	StationName   string   `json:"station_name"`
	DriverID      string   `json:"driver_id"`
	VehicleID     string   `json:"vehicle_id"`
	Mileage       *float64 `json:"mileage"`
	ReceiptNumber string   `json:"receipt_number"`
	Notes         string   `json:"notes"`
}

// HandleTransactions routes GET (list) and POST (create) on
// /api/fuel/transactions.
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	row := models.NormalizedRow{
		CardID:        req.CardID,
		TimeOfDay:     req.TimeOfDay,
		Litres:        req.Litres,
		PricePerLitre: req.PricePerLitre,
		TotalCost:     req.TotalCost,
		StationName:   req.StationName,
		DriverID:      req.DriverID,
		VehicleID:     req.VehicleID,
		Mileage:       req.Mileage,
		ReceiptNumber: req.ReceiptNumber,
		Notes:         req.Notes,
	}
	if req.Date != "" {
		if d, err := time.Parse(time.DateOnly, req.Date); err == nil {
			d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			row.Date = &d
		}
	}

	batch := models.ImportBatch{TenantID: tenantID, Rows: []models.NormalizedRow{row}}
	result, err := h.coordinator.Run(r.Context(), tenantID, batch, false)
	if err != nil {
		http.Error(w, "Failed to process transaction", http.StatusInternalServerError)
		return
	}

	detail := result.Details[0]
	switch detail.Status {
	case models.RowStatusImported:
		writeJSON(w, http.StatusCreated, detail)
	case models.RowStatusSkippedDuplicate:
		writeJSON(w, http.StatusConflict, detail)
	case models.RowStatusInvalid:
		writeJSON(w, http.StatusUnprocessableEntity, detail)
	default:
		writeJSON(w, http.StatusInternalServerError, detail)
	}
}

func (h *TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	from, to, err := dateRangeFromQuery(r, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.txs.QueryRange(r.Context(), tenantID, from, to)
	if err != nil {
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.FuelTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
