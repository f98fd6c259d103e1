package models

import "time"

// NormalizedRow is the typed output of the transaction normalizer. Numeric and
// date fields that could not be parsed are nil rather than zero so the
// validator can tell "missing" from "zero".
type NormalizedRow struct {
	CardID        string     `json:"card_id"`
	Date          *time.Time `json:"date,omitempty"`
	TimeOfDay     string     `json:"time_of_day,omitempty"`
	Litres        *float64   `json:"litres,omitempty"`
	PricePerLitre *float64   `json:"price_per_litre,omitempty"`
	TotalCost     *float64   `json:"total_cost,omitempty"`
	StationName   string     `json:"station_name"`
	DriverID      string     `json:"driver_id,omitempty"`
	VehicleID     string     `json:"vehicle_id,omitempty"`
	Mileage       *float64   `json:"mileage,omitempty"`
	ReceiptNumber string     `json:"receipt_number,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// ImportBatch is an ephemeral collection of candidate rows for one import run.
// It is never persisted; the provider label is display-only.
type ImportBatch struct {
	TenantID      string          `json:"tenant_id"`
	ProviderLabel string          `json:"provider_label,omitempty"`
	Rows          []NormalizedRow `json:"rows"`
}

// RowStatus describes the outcome for a single row of an import run.
type RowStatus string

const (
	RowStatusValid            RowStatus = "valid"
	RowStatusInvalid          RowStatus = "invalid"
	RowStatusImported         RowStatus = "imported"
	RowStatusSkippedDuplicate RowStatus = "skipped_duplicate"
	RowStatusFailed           RowStatus = "failed"
)

// RowResult reports the outcome of one row. Row numbers are 1-based and refer
// to data rows, excluding the header.
type RowResult struct {
	Row           int       `json:"row"`
	Status        RowStatus `json:"status"`
	Reasons       []string  `json:"reasons,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
}

// ImportResult aggregates an import or validate-only run over a batch.
type ImportResult struct {
	BatchID          string      `json:"batch_id"`
	ProviderLabel    string      `json:"provider_label,omitempty"`
	ValidateOnly     bool        `json:"validate_only"`
	Total            int         `json:"total"`
	Valid            int         `json:"valid"`
	Invalid          int         `json:"invalid"`
	Imported         int         `json:"imported"`
	SkippedDuplicate int         `json:"skipped_duplicate"`
	Failed           int         `json:"failed"`
	Details          []RowResult `json:"details"`
}
