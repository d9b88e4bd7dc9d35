package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// caseInsensitive makes equality comparisons ignore letter case so title
// lookups behave the same as the in-memory name matching.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

func (r *ProductRepository) FindByEANs(ctx context.Context, eans []string) ([]models.Product, error) {
	return r.findByField(ctx, "ean", eans, nil)
}

func (r *ProductRepository) FindByMPNs(ctx context.Context, mpns []string) ([]models.Product, error) {
	return r.findByField(ctx, "mpn", mpns, nil)
}

func (r *ProductRepository) FindByTitles(ctx context.Context, titles []string) ([]models.Product, error) {
	return r.findByField(ctx, "title", titles, options.Find().SetCollation(caseInsensitive))
}

func (r *ProductRepository) findByField(ctx context.Context, field string, values []string, findOptions *options.FindOptions) ([]models.Product, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var products []models.Product
	err := withRetry(ctx, "products.find_by_"+field, func() error {
		cursor, err := r.collection.Find(ctx, bson.M{field: bson.M{"$in": values}}, findOptions)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		products = products[:0]
		return cursor.All(ctx, &products)
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpsertByEAN writes products in one unordered bulk call, updating existing
// rows that share an EAN and inserting the rest. Returns how many documents
// were written.
func (r *ProductRepository) UpsertByEAN(ctx context.Context, products []models.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		set := bson.M{
			"title":         p.Title,
			"mpn":           p.MPN,
			"asin":          p.ASIN,
			"upc":           p.UPC,
			"brand":         p.Brand,
			"sale_price":    p.SalePrice,
			"units_sold":    p.UnitsSold,
			"amazon_fee":    p.AmazonFee,
			"buy_box_price": p.BuyBoxPrice,
			"category":      p.Category,
			"rating":        p.Rating,
			"review_count":  p.ReviewCount,
			"updated_at":    now,
		}
		if len(p.CustomAttributes) > 0 {
			set["custom_attributes"] = p.CustomAttributes
		}
		if p.PlaceholderEAN {
			set["placeholder_ean"] = true
		}

		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"ean": p.EAN}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"_id": p.ID, "ean": p.EAN, "created_at": now},
			}).
			SetUpsert(true))
	}

	var written int64
	err := withRetry(ctx, "products.upsert_by_ean", func() error {
		res, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
		written = res.MatchedCount + res.UpsertedCount
		return nil
	})
	return written, err
}

func (r *ProductRepository) InsertMany(ctx context.Context, products []models.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(products))
	for i := range products {
		docs[i] = products[i]
	}

	var inserted int64
	err := withRetry(ctx, "products.insert_many", func() error {
		res, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if res != nil {
			inserted = int64(len(res.InsertedIDs))
		}
		return err
	})
	return inserted, err
}

func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ean", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "mpn", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetCollation(caseInsensitive),
		},
	})
	return err
}
