package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelTransaction represents one fuel purchase recorded against a card.
// Transactions are created once (manual entry or bulk import) and are
// immutable afterwards except for corrective notes.
type FuelTransaction struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID        string             `json:"tenant_id" bson:"tenant_id"`
	CardID          string             `json:"card_id" bson:"card_id"`
	DriverID        string             `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	VehicleID       string             `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	Date            time.Time          `json:"date" bson:"date"`                           // calendar date, midnight UTC
	TimeOfDay       string             `json:"time_of_day,omitempty" bson:"time_of_day,omitempty"` // "HH:MM", optional
	StationName     string             `json:"station_name" bson:"station_name"`
	Litres          float64            `json:"litres" bson:"litres"`
	PricePerLitre   float64            `json:"price_per_litre" bson:"price_per_litre"`
	TotalCost       float64            `json:"total_cost" bson:"total_cost"` // litres * price, persisted for audit
	Mileage         *float64           `json:"mileage,omitempty" bson:"mileage,omitempty"`
	PreviousMileage *float64           `json:"previous_mileage,omitempty" bson:"previous_mileage,omitempty"`
	ReceiptNumber   string             `json:"receipt_number,omitempty" bson:"receipt_number,omitempty"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Source          string             `json:"source" bson:"source"` // "manual" or "import"
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

// DedupKey identifies a transaction for duplicate detection on import.
// Two rows with the same key are considered the same purchase.
type DedupKey struct {
	CardID      string
	Date        string // "2006-01-02"
	TimeOfDay   string // "" when absent
	TotalCost   float64
	StationName string
}

// DedupKeyFor derives the duplicate-detection key for a transaction.
func DedupKeyFor(tx FuelTransaction) DedupKey {
	return DedupKey{
		CardID:      tx.CardID,
		Date:        tx.Date.Format(time.DateOnly),
		TimeOfDay:   tx.TimeOfDay,
		TotalCost:   Round2(tx.TotalCost),
		StationName: tx.StationName,
	}
}

// String renders the key for logging.
func (k DedupKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%.2f/%s", k.CardID, k.Date, k.TimeOfDay, k.TotalCost, k.StationName)
}

// Round2 rounds a currency or volume amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
