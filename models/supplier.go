package models

import "time"

// Supplier is a vendor whose price lists get imported. Name is unique.
type Supplier struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	Name              string    `json:"name" bson:"name"`
	HasMatchedProduct bool      `json:"has_matched_product" bson:"has_matched_product"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// Defaults applied to imported offers when the source file omits them.
const (
	DefaultLeadTime     = "3 days"
	DefaultPaymentTerms = "Net 30"
)

// SupplierOffer is one line of a supplier price list. ProductID is empty
// until the matching engine links the offer to a catalog product; the
// (SupplierID, ProductID) pair is unique for matched offers and
// (SupplierID, EAN) for unmatched ones.
type SupplierOffer struct {
	ID           string  `json:"id" bson:"_id,omitempty"`
	SupplierID   string  `json:"supplier_id" bson:"supplier_id"`
	ProductID    string  `json:"product_id,omitempty" bson:"product_id,omitempty"`
	EAN          string  `json:"ean" bson:"ean"`
	MPN          string  `json:"mpn,omitempty" bson:"mpn,omitempty"`
	ProductName  string  `json:"product_name" bson:"product_name"`
	Brand        string  `json:"brand,omitempty" bson:"brand,omitempty"`
	Cost         float64 `json:"cost" bson:"cost"`
	Stock        int     `json:"stock" bson:"stock"`
	MOQ          int     `json:"moq,omitempty" bson:"moq,omitempty"`
	LeadTime     string  `json:"lead_time,omitempty" bson:"lead_time,omitempty"`
	PaymentTerms string  `json:"payment_terms,omitempty" bson:"payment_terms,omitempty"`
	// MatchMethod records which strategy linked the offer (ean, mpn,
	// name) or none for the unmatched set.
	MatchMethod      string                 `json:"match_method" bson:"match_method"`
	PlaceholderEAN   bool                   `json:"placeholder_ean,omitempty" bson:"placeholder_ean,omitempty"`
	CustomAttributes map[string]interface{} `json:"custom_attributes,omitempty" bson:"custom_attributes,omitempty"`
	CreatedAt        time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" bson:"updated_at"`
}
