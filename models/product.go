package models

import "time"

// Defaults applied when an imported product row leaves these blank.
const (
	DefaultProductTitle = "Untitled Product"
	DefaultBrand        = "Unknown Brand"
)

// Product is a catalog item. EAN is the natural key; imports upsert on it.
type Product struct {
	ID               string                 `json:"id" bson:"_id,omitempty"`
	Title            string                 `json:"title" bson:"title"`
	EAN              string                 `json:"ean" bson:"ean"`
	MPN              string                 `json:"mpn,omitempty" bson:"mpn,omitempty"`
	ASIN             string                 `json:"asin,omitempty" bson:"asin,omitempty"`
	UPC              string                 `json:"upc,omitempty" bson:"upc,omitempty"`
	Brand            string                 `json:"brand" bson:"brand"`
	SalePrice        float64                `json:"sale_price" bson:"sale_price"`
	UnitsSold        int                    `json:"units_sold" bson:"units_sold"`
	AmazonFee        float64                `json:"amazon_fee" bson:"amazon_fee"`
	BuyBoxPrice      float64                `json:"buy_box_price" bson:"buy_box_price"`
	Category         string                 `json:"category,omitempty" bson:"category,omitempty"`
	Rating           float64                `json:"rating" bson:"rating"`
	ReviewCount      int                    `json:"review_count" bson:"review_count"`
	CustomAttributes map[string]interface{} `json:"custom_attributes,omitempty" bson:"custom_attributes,omitempty"`
	// PlaceholderEAN marks a synthesized identifier so it is never
	// mistaken for a real barcode.
	PlaceholderEAN bool      `json:"placeholder_ean,omitempty" bson:"placeholder_ean,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}
