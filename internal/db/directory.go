package db

import (
	"context"
	"fmt"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDriverCollection implements DriverCollection for MongoDB.
type MongoDriverCollection struct {
	Collection *mongo.Collection
}

// InsertDriver inserts a driver record and returns its ID.
func (c *MongoDriverCollection) InsertDriver(ctx context.Context, driver models.Driver) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	driver.CreatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, driver)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// DriverExists reports whether the tenant has a driver with the given ID.
func (c *MongoDriverCollection) DriverExists(ctx context.Context, tenantID, id string) (bool, error) {
	if c.Collection == nil {
		return false, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	count, err := c.Collection.CountDocuments(ctx, bson.M{"_id": objectID, "tenant_id": tenantID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindDrivers returns all of a tenant's drivers.
func (c *MongoDriverCollection) FindDrivers(ctx context.Context, tenantID string) ([]models.Driver, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var drivers []models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record and returns its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	vehicle.CreatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, vehicle)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// VehicleExists reports whether the tenant has a vehicle with the given ID.
func (c *MongoVehicleCollection) VehicleExists(ctx context.Context, tenantID, id string) (bool, error) {
	if c.Collection == nil {
		return false, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	count, err := c.Collection.CountDocuments(ctx, bson.M{"_id": objectID, "tenant_id": tenantID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindVehicles returns all of a tenant's vehicles.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}
