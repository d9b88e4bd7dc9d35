package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

type SupplierRepository struct {
	suppliers *mongo.Collection
	offers    *mongo.Collection
}

func NewSupplierRepository(db *mongo.Database) *SupplierRepository {
	return &SupplierRepository{
		suppliers: db.Collection("suppliers"),
		offers:    db.Collection("supplier_offers"),
	}
}

// GetOrCreateByName returns the supplier with the given name, creating it
// when absent. The second return value reports whether a new supplier was
// created.
func (r *SupplierRepository) GetOrCreateByName(ctx context.Context, name string) (*models.Supplier, bool, error) {
	now := time.Now().UTC()

	var supplier models.Supplier
	created := false
	err := withRetry(ctx, "suppliers.get_or_create", func() error {
		res := r.suppliers.FindOneAndUpdate(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{
				"_id":                 uuid.New().String(),
				"name":                name,
				"has_matched_product": false,
				"created_at":          now,
				"updated_at":          now,
			}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))
		if err := res.Decode(&supplier); err != nil {
			return err
		}
		created = supplier.CreatedAt.Equal(now)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &supplier, created, nil
}

// MarkMatched flags suppliers that gained at least one matched offer.
func (r *SupplierRepository) MarkMatched(ctx context.Context, supplierIDs []string) error {
	if len(supplierIDs) == 0 {
		return nil
	}
	return withRetry(ctx, "suppliers.mark_matched", func() error {
		_, err := r.suppliers.UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": supplierIDs}},
			bson.M{"$set": bson.M{"has_matched_product": true, "updated_at": time.Now().UTC()}})
		return err
	})
}

// UpsertMatchedOffers writes matched offers, one row per (supplier,
// product) pair. Re-imports of the same price list overwrite in place.
func (r *SupplierRepository) UpsertMatchedOffers(ctx context.Context, offers []models.SupplierOffer) (int64, error) {
	if len(offers) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(offers))
	for _, o := range offers {
		set := bson.M{
			"ean":           o.EAN,
			"mpn":           o.MPN,
			"product_name":  o.ProductName,
			"cost":          o.Cost,
			"stock":         o.Stock,
			"moq":           o.MOQ,
			"lead_time":     o.LeadTime,
			"payment_terms": o.PaymentTerms,
			"match_method":  o.MatchMethod,
			"updated_at":    now,
		}
		if len(o.CustomAttributes) > 0 {
			set["custom_attributes"] = o.CustomAttributes
		}

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"supplier_id": o.SupplierID, "product_id": o.ProductID}).
			SetUpdate(bson.M{
				"$set": set,
				"$setOnInsert": bson.M{
					"_id":         o.ID,
					"supplier_id": o.SupplierID,
					"product_id":  o.ProductID,
					"created_at":  now,
				},
			}).
			SetUpsert(true))
	}

	var written int64
	err := withRetry(ctx, "offers.upsert_matched", func() error {
		res, err := r.offers.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
		written = res.MatchedCount + res.UpsertedCount
		return nil
	})
	return written, err
}

// ReplaceUnmatchedOffers deletes any prior unmatched rows carrying the same
// supplier+EAN keys and inserts the new batch. Delete-then-insert keeps
// stale placeholder rows from piling up across re-imports.
func (r *SupplierRepository) ReplaceUnmatchedOffers(ctx context.Context, supplierID string, offers []models.SupplierOffer) (int64, error) {
	if len(offers) == 0 {
		return 0, nil
	}

	eans := make([]string, 0, len(offers))
	docs := make([]interface{}, 0, len(offers))
	for i := range offers {
		eans = append(eans, offers[i].EAN)
		docs = append(docs, offers[i])
	}

	err := withRetry(ctx, "offers.delete_unmatched", func() error {
		_, err := r.offers.DeleteMany(ctx, bson.M{
			"supplier_id": supplierID,
			"ean":         bson.M{"$in": eans},
			"product_id":  bson.M{"$in": []interface{}{nil, ""}},
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	var inserted int64
	err = withRetry(ctx, "offers.insert_unmatched", func() error {
		res, err := r.offers.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if res != nil {
			inserted = int64(len(res.InsertedIDs))
		}
		return err
	})
	return inserted, err
}

func (r *SupplierRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.suppliers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	_, err := r.offers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"product_id": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "ean", Value: 1}},
		},
	})
	return err
}
