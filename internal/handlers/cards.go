package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// CardHandler handles fuel-card CRUD requests. Cards are never deleted;
// archival happens outside this service.
type CardHandler struct {
	cards db.CardCollection
}

// NewCardHandler creates a new card handler.
func NewCardHandler(cards db.CardCollection) *CardHandler {
	return &CardHandler{cards: cards}
}

// cardRequest is the create/update payload for a card.
type cardRequest struct {
	LastFour     string              `json:"last_four"`
	Provider     models.CardProvider `json:"provider"`
	DriverID     string              `json:"driver_id"`
	VehicleID    string              `json:"vehicle_id"`
	MonthlyLimit *float64            `json:"monthly_limit"`
	DailyLimit   *float64            `json:"daily_limit"`
	Status       models.CardStatus   `json:"status"`
	Notes        string              `json:"notes"`
}

// HandleCards routes GET (list) and POST (create) on /api/cards.
func (h *CardHandler) HandleCards(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleCardByID routes GET and PUT on /api/cards/{id}.
func (h *CardHandler) HandleCardByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/cards/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Card ID required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CardHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !models.IsValidLastFour(req.LastFour) {
		http.Error(w, "last_four must be exactly four digits", http.StatusBadRequest)
		return
	}
	if !models.IsValidProvider(req.Provider) {
		http.Error(w, "Invalid provider", http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		req.Status = models.CardStatusActive
	}
	if !models.IsValidCardStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	if err := validateLimits(req.MonthlyLimit, req.DailyLimit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card := models.FuelCard{
		TenantID:     tenantID,
		LastFour:     req.LastFour,
		Provider:     req.Provider,
		DriverID:     req.DriverID,
		VehicleID:    req.VehicleID,
		MonthlyLimit: req.MonthlyLimit,
		DailyLimit:   req.DailyLimit,
		Status:       req.Status,
		Notes:        req.Notes,
	}
	id, err := h.cards.InsertCard(r.Context(), card)
	if err != nil {
		http.Error(w, "Failed to create card", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *CardHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	cards, err := h.cards.FindCards(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "Failed to list cards", http.StatusInternalServerError)
		return
	}
	if cards == nil {
		cards = []models.FuelCard{}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	card, err := h.cards.FindCardByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load card", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// update applies limit, assignment and status changes. The last-four and
// provider of an issued card are immutable.
func (h *CardHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	card, err := h.cards.FindCardByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load card", http.StatusInternalServerError)
		return
	}

	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Status != "" && !models.IsValidCardStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	if err := validateLimits(req.MonthlyLimit, req.DailyLimit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card.DriverID = req.DriverID
	card.VehicleID = req.VehicleID
	card.MonthlyLimit = req.MonthlyLimit
	card.DailyLimit = req.DailyLimit
	card.Notes = req.Notes
	if req.Status != "" {
		card.Status = req.Status
	}

	if err := h.cards.UpdateCard(r.Context(), tenantID, id, *card); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update card", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func validateLimits(monthly, daily *float64) error {
	if monthly != nil && *monthly <= 0 {
		return errors.New("monthly_limit must be positive")
	}
	if daily != nil && *daily <= 0 {
		return errors.New("daily_limit must be positive")
	}
	return nil
}
