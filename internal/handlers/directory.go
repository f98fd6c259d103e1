package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// DirectoryHandler exposes the driver and vehicle directories the import
// pipeline validates against. The full HR and fleet records live in other
// services; this keeps just enough for referential checks.
type DirectoryHandler struct {
	drivers  db.DriverCollection
	vehicles db.VehicleCollection
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(drivers db.DriverCollection, vehicles db.VehicleCollection) *DirectoryHandler {
	return &DirectoryHandler{drivers: drivers, vehicles: vehicles}
}

// HandleDrivers routes GET (list) and POST (create) on /api/drivers.
func (h *DirectoryHandler) HandleDrivers(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		drivers, err := h.drivers.FindDrivers(r.Context(), tenantID)
		if err != nil {
			http.Error(w, "Failed to list drivers", http.StatusInternalServerError)
			return
		}
		if drivers == nil {
			drivers = []models.Driver{}
		}
		writeJSON(w, http.StatusOK, drivers)
	case http.MethodPost:
		var driver models.Driver
		if err := json.NewDecoder(r.Body).Decode(&driver); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if driver.Name == "" {
			http.Error(w, "Driver name is required", http.StatusBadRequest)
			return
		}
		driver.TenantID = tenantID
		if driver.Status == "" {
			driver.Status = "active"
		}
		id, err := h.drivers.InsertDriver(r.Context(), driver)
		if err != nil {
			http.Error(w, "Failed to create driver", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleVehicles routes GET (list) and POST (create) on /api/vehicles.
func (h *DirectoryHandler) HandleVehicles(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		vehicles, err := h.vehicles.FindVehicles(r.Context(), tenantID)
		if err != nil {
			http.Error(w, "Failed to list vehicles", http.StatusInternalServerError)
			return
		}
		if vehicles == nil {
			vehicles = []models.Vehicle{}
		}
		writeJSON(w, http.StatusOK, vehicles)
	case http.MethodPost:
		var vehicle models.Vehicle
		if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if vehicle.Registration == "" {
			http.Error(w, "Vehicle registration is required", http.StatusBadRequest)
			return
		}
		vehicle.TenantID = tenantID
		if vehicle.Status == "" {
			vehicle.Status = "active"
		}
		id, err := h.vehicles.InsertVehicle(r.Context(), vehicle)
		if err != nil {
			http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
