package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CardStatus represents the lifecycle state of a fuel card.
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusSuspended CardStatus = "suspended"
)

// CardProvider identifies the fuel-card issuer.
type CardProvider string

const (
	ProviderShell    CardProvider = "shell"
	ProviderBP       CardProvider = "bp"
	ProviderEsso     CardProvider = "esso"
	ProviderTexaco   CardProvider = "texaco"
	ProviderKeyfuels CardProvider = "keyfuels"
	ProviderUKFuels  CardProvider = "ukfuels"
	ProviderOther    CardProvider = "other"
)

var lastFourPattern = regexp.MustCompile(`^[0-9]{4}$`)

// FuelCard represents a physical or virtual fuel card issued to a tenant.
// Cards are never hard-deleted; suspension blocks new transactions at the
// import boundary.
type FuelCard struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID     string             `json:"tenant_id" bson:"tenant_id"`
	LastFour     string             `json:"last_four" bson:"last_four"`
	Provider     CardProvider       `json:"provider" bson:"provider"`
	DriverID     string             `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	VehicleID    string             `json:"vehicle_id,omitempty" bson:"vehicle_id,omitempty"`
	MonthlyLimit *float64           `json:"monthly_limit,omitempty" bson:"monthly_limit,omitempty"`
	DailyLimit   *float64           `json:"daily_limit,omitempty" bson:"daily_limit,omitempty"`
	Status       CardStatus         `json:"status" bson:"status"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsValidLastFour reports whether s is exactly four digits.
func IsValidLastFour(s string) bool {
	return lastFourPattern.MatchString(s)
}

// IsValidCardStatus reports whether the status is one of the known states.
func IsValidCardStatus(s CardStatus) bool {
	return s == CardStatusActive || s == CardStatusSuspended
}

// IsValidProvider reports whether the provider is a known issuer.
func IsValidProvider(p CardProvider) bool {
	switch p {
	case ProviderShell, ProviderBP, ProviderEsso, ProviderTexaco,
		ProviderKeyfuels, ProviderUKFuels, ProviderOther:
		return true
	default:
		return false
	}
}
