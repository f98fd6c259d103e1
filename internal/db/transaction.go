package db

import (
	"context"
	"fmt"
	"time"

	"github.com/transitkit/fuelcard-backoffice/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTransactionCollection implements TransactionCollection for MongoDB.
type MongoTransactionCollection struct {
	Collection *mongo.Collection
}

// InsertTransaction inserts a fuel transaction and returns its ID.
func (c *MongoTransactionCollection) InsertTransaction(ctx context.Context, tx models.FuelTransaction) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	tx.CreatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, tx)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// FindByDedupKey returns the ID of an existing transaction matching the
// duplicate-detection key, or ErrNotFound. Total cost is stored rounded to
// two decimals, so equality matching here is exact.
func (c *MongoTransactionCollection) FindByDedupKey(ctx context.Context, tenantID string, key models.DedupKey) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	date, err := time.Parse(time.DateOnly, key.Date)
	if err != nil {
		return "", fmt.Errorf("invalid dedup date %q: %w", key.Date, err)
	}
	filter := bson.M{
		"tenant_id":    tenantID,
		"card_id":      key.CardID,
		"date":         date,
		"total_cost":   key.TotalCost,
		"station_name": key.StationName,
	}
	if key.TimeOfDay == "" {
		filter["time_of_day"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		filter["time_of_day"] = key.TimeOfDay
	}
	var tx models.FuelTransaction
	err = c.Collection.FindOne(ctx, filter).Decode(&tx)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}
	return tx.ID.Hex(), nil
}

// QueryRange returns the tenant's transactions with from <= date < to,
// newest first.
func (c *MongoTransactionCollection) QueryRange(ctx context.Context, tenantID string, from, to time.Time) ([]models.FuelTransaction, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{
		"tenant_id": tenantID,
		"date":      bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var txs []models.FuelTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
