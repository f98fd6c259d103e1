package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/db"
	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// Reason codes reported per row. Stable strings so the caller layer can map
// them to user-facing messages.
const (
	ReasonCardNotFound        = "card_not_found"
	ReasonCardSuspended       = "card_suspended"
	ReasonCardLookupFailed    = "card_lookup_failed"
	ReasonDriverNotFound      = "driver_not_found"
	ReasonDriverLookupFailed  = "driver_lookup_failed"
	ReasonDriverMismatch      = "driver_mismatch"
	ReasonVehicleNotFound     = "vehicle_not_found"
	ReasonVehicleLookupFailed = "vehicle_lookup_failed"
	ReasonVehicleMismatch     = "vehicle_mismatch"
	ReasonNonPositiveLitres   = "non_positive_litres"
	ReasonNonPositivePrice    = "non_positive_price"
	ReasonCostMismatch        = "cost_mismatch"
	ReasonFutureDate          = "future_date"
	ReasonDateBeforeCard      = "date_before_card"
)

// CostTolerance is the rounding tolerance for total_cost against
// litres * price_per_litre.
const CostTolerance = 0.01

// missingField formats the reason for an absent required field.
func missingField(field string) string {
	return "missing_field:" + field
}

// Validator checks normalized rows against structural and referential rules.
// Lookups are read-only; a lookup failure (including a timeout) is reported
// as a recoverable reason on that row, never as a batch failure.
type Validator struct {
	Cards    db.CardCollection
	Drivers  db.DriverCollection
	Vehicles db.VehicleCollection
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewValidator creates a validator over the given directory collections.
func NewValidator(cards db.CardCollection, drivers db.DriverCollection, vehicles db.VehicleCollection) *Validator {
	return &Validator{Cards: cards, Drivers: drivers, Vehicles: vehicles, Now: time.Now}
}

// Validate returns the ordered list of violation reasons for one row. An
// empty slice means the row is valid. Required-field checks run first and
// short-circuit the numeric and referential checks.
func (v *Validator) Validate(ctx context.Context, tenantID string, row models.NormalizedRow) []string {
	var reasons []string

	if row.CardID == "" {
		reasons = append(reasons, missingField(FieldCardID))
	}
	if row.Date == nil {
		reasons = append(reasons, missingField(FieldDate))
	}
	if row.Litres == nil {
		reasons = append(reasons, missingField(FieldLitres))
	}
	if row.TotalCost == nil {
		reasons = append(reasons, missingField(FieldTotalCost))
	}
	if row.StationName == "" {
		reasons = append(reasons, missingField(FieldStation))
	}
	if len(reasons) > 0 {
		return reasons
	}

	card, err := v.Cards.FindCardByID(ctx, tenantID, row.CardID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		reasons = append(reasons, ReasonCardNotFound)
	case err != nil:
		reasons = append(reasons, fmt.Sprintf("%s:%v", ReasonCardLookupFailed, err))
	case card.Status == models.CardStatusSuspended:
		reasons = append(reasons, ReasonCardSuspended)
	}

	if card != nil {
		cardCreated := truncateToDay(card.CreatedAt)
		if row.Date.Before(cardCreated) {
			reasons = append(reasons, ReasonDateBeforeCard)
		}
		// A fixed assignment on the card pins the row's driver/vehicle when
		// present; mismatches are reported, never silently overridden.
		if card.DriverID != "" && row.DriverID != "" && row.DriverID != card.DriverID {
			reasons = append(reasons, ReasonDriverMismatch)
		}
		if card.VehicleID != "" && row.VehicleID != "" && row.VehicleID != card.VehicleID {
			reasons = append(reasons, ReasonVehicleMismatch)
		}
	}

	if row.DriverID != "" {
		exists, err := v.Drivers.DriverExists(ctx, tenantID, row.DriverID)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s:%v", ReasonDriverLookupFailed, err))
		} else if !exists {
			reasons = append(reasons, ReasonDriverNotFound)
		}
	}
	if row.VehicleID != "" {
		exists, err := v.Vehicles.VehicleExists(ctx, tenantID, row.VehicleID)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s:%v", ReasonVehicleLookupFailed, err))
		} else if !exists {
			reasons = append(reasons, ReasonVehicleNotFound)
		}
	}

	if *row.Litres <= 0 {
		reasons = append(reasons, ReasonNonPositiveLitres)
	}
	if row.PricePerLitre != nil {
		if *row.PricePerLitre <= 0 {
			reasons = append(reasons, ReasonNonPositivePrice)
		} else if *row.Litres > 0 {
			expected := *row.Litres * *row.PricePerLitre
			if math.Abs(expected-*row.TotalCost) > CostTolerance {
				reasons = append(reasons, fmt.Sprintf("%s:expected %.2f got %.2f", ReasonCostMismatch, expected, *row.TotalCost))
			}
		}
	}

	today := truncateToDay(v.Now())
	if row.Date.After(today) {
		reasons = append(reasons, ReasonFutureDate)
	}

	return reasons
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
