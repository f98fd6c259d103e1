package db

import (
	"context"
	"errors"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/models"
)

// ErrNotFound is returned when a document does not exist for the tenant.
var ErrNotFound = errors.New("not found")

// CardCollection defines the interface for fuel-card operations. All reads
// and writes are tenant-scoped.
type CardCollection interface {
	InsertCard(ctx context.Context, card models.FuelCard) (string, error)
	FindCardByID(ctx context.Context, tenantID, id string) (*models.FuelCard, error)
	FindCards(ctx context.Context, tenantID string) ([]models.FuelCard, error)
	UpdateCard(ctx context.Context, tenantID, id string, card models.FuelCard) error
}

// TransactionCollection defines the interface for fuel-transaction storage:
// insert, duplicate lookup and date-range queries.
type TransactionCollection interface {
	InsertTransaction(ctx context.Context, tx models.FuelTransaction) (string, error)
	// FindByDedupKey returns the ID of an existing transaction matching the
	// key, or ErrNotFound.
	FindByDedupKey(ctx context.Context, tenantID string, key models.DedupKey) (string, error)
	// QueryRange returns the tenant's transactions with from <= date < to.
	QueryRange(ctx context.Context, tenantID string, from, to time.Time) ([]models.FuelTransaction, error)
}

// DriverCollection defines the interface for the driver directory.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver models.Driver) (string, error)
	DriverExists(ctx context.Context, tenantID, id string) (bool, error)
	FindDrivers(ctx context.Context, tenantID string) ([]models.Driver, error)
}

// VehicleCollection defines the interface for the vehicle directory.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	VehicleExists(ctx context.Context, tenantID, id string) (bool, error)
	FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error)
}
