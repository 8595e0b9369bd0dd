package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// IShopService defines the interface for shop lookups and image updates.
type IShopService interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error)
	FindByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Shop, error)
	SetImage(ctx context.Context, id primitive.ObjectID, imageKey string) error
}

const shopsCollection = "shops"

// shopService implements IShopService.
type shopService struct {
	db *mongo.Database
}

// NewShopService creates a new ShopService.
func NewShopService(db *mongo.Database) IShopService {
	return &shopService{db: db}
}

func (s *shopService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Shop, error) {
	var shop models.Shop
	err := s.db.Collection(shopsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&shop)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to fetch shop: %w", err)
	}
	return &shop, nil
}

func (s *shopService) FindByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Shop, error) {
	cursor, err := s.db.Collection(shopsCollection).Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer cursor.Close(ctx)

	var shops []models.Shop
	if err := cursor.All(ctx, &shops); err != nil {
		return nil, fmt.Errorf("failed to decode shops: %w", err)
	}
	return shops, nil
}

// SetImage records the storage key of the shop's processed image.
func (s *shopService) SetImage(ctx context.Context, id primitive.ObjectID, imageKey string) error {
	res, err := s.db.Collection(shopsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"image": imageKey, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to set shop image: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
