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

// MongoCardCollection implements CardCollection for MongoDB.
type MongoCardCollection struct {
	Collection *mongo.Collection
}

// InsertCard inserts a new fuel card and returns its ID.
func (c *MongoCardCollection) InsertCard(ctx context.Context, card models.FuelCard) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, card)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// FindCardByID finds a tenant's card by its ID.
func (c *MongoCardCollection) FindCardByID(ctx context.Context, tenantID, id string) (*models.FuelCard, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var card models.FuelCard
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID}).Decode(&card)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

// FindCards returns all of a tenant's cards.
func (c *MongoCardCollection) FindCards(ctx context.Context, tenantID string) ([]models.FuelCard, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var cards []models.FuelCard
	if err := cursor.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// UpdateCard replaces a tenant's card by its ID.
func (c *MongoCardCollection) UpdateCard(ctx context.Context, tenantID, id string, card models.FuelCard) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	card.ID = objectID
	card.TenantID = tenantID
	card.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID}, card)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
