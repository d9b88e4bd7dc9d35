package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

type AttributeRepository struct {
	collection *mongo.Collection
}

func NewAttributeRepository(db *mongo.Database) *AttributeRepository {
	return &AttributeRepository{
		collection: db.Collection("attribute_definitions"),
	}
}

func (r *AttributeRepository) ListByEntityType(ctx context.Context, entityType models.JobType) ([]models.AttributeDefinition, error) {
	var defs []models.AttributeDefinition
	err := withRetry(ctx, "attributes.list", func() error {
		cursor, err := r.collection.Find(ctx, bson.M{"entity_type": entityType})
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		defs = defs[:0]
		return cursor.All(ctx, &defs)
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}
