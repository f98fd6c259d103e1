package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Driver represents a driver in the tenant's directory. The back-office holds
// the full employment record elsewhere; the import pipeline only needs
// existence and identity.
type Driver struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  string             `bson:"tenant_id" json:"tenant_id"`
	Name      string             `bson:"name" json:"name"`
	Status    string             `bson:"status" json:"status"` // "active" or "inactive"
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Vehicle represents a fleet vehicle in the tenant's directory.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     string             `bson:"tenant_id" json:"tenant_id"`
	Registration string             `bson:"registration" json:"registration"`
	Make         string             `bson:"make" json:"make"`
	Model        string             `bson:"model" json:"model"`
	Year         int                `bson:"year" json:"year"`
	FuelType     string             `bson:"fuel_type" json:"fuel_type"` // "diesel", "petrol", "electric"
	Status       string             `bson:"status" json:"status"`       // "active" or "inactive"
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
