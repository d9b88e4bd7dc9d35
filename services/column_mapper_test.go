package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "product_title", services.NormalizeHeader("Product Title"))
	assert.Equal(t, "buy_box_price", services.NormalizeHeader(" Buy-Box  Price "))
	assert.Equal(t, "ean", services.NormalizeHeader("EAN"))
	assert.Equal(t, "", services.NormalizeHeader("---"))
}

func TestMapColumns_CoversAllHeaders(t *testing.T) {
	headers := []string{"Product Title", "EAN Code", "Brand Name"}
	mapping := services.MapColumns(headers, services.ProductFields())

	assert.Equal(t, "Product Title", mapping["title"])
	assert.Equal(t, "EAN Code", mapping["ean"])
	assert.Equal(t, "Brand Name", mapping["brand"])

	seen := map[string]int{}
	for _, h := range mapping {
		seen[h]++
	}
	for h, n := range seen {
		assert.Equal(t, 1, n, "header %q claimed more than once", h)
	}
}

func TestMapColumns_ExactBeatsSubstring(t *testing.T) {
	// "Sale Price" must win the sale_price field even though "Buy Box Price"
	// also contains "price" tokens.
	headers := []string{"Buy Box Price", "Sale Price"}
	mapping := services.MapColumns(headers, services.ProductFields())

	assert.Equal(t, "Sale Price", mapping["sale_price"])
	assert.Equal(t, "Buy Box Price", mapping["buy_box_price"])
}

func TestMapColumns_SubstringEitherDirection(t *testing.T) {
	headers := []string{"Supplier Name", "Product", "Manufacturer Part No", "Cost Price (GBP)", "Stock Level"}
	mapping := services.MapColumns(headers, services.SupplierFields())

	assert.Equal(t, "Supplier Name", mapping["supplier_name"])
	assert.Equal(t, "Product", mapping["product_name"])
	assert.Equal(t, "Manufacturer Part No", mapping["mpn"])
	assert.Equal(t, "Cost Price (GBP)", mapping["cost"])
	assert.Equal(t, "Stock Level", mapping["supplier_stock"])
}

func TestMapColumns_UnmappedFieldsAbsent(t *testing.T) {
	headers := []string{"Title", "EAN", "Brand", "Sale Price"}
	mapping := services.MapColumns(headers, services.ProductFields())

	_, hasRating := mapping["rating"]
	assert.False(t, hasRating)
	_, hasCategory := mapping["category"]
	assert.False(t, hasCategory)
	assert.Len(t, mapping, 4)
}

func TestMapColumns_CustomAttributes(t *testing.T) {
	defs := []models.AttributeDefinition{
		{Name: "Warranty Period", EntityType: models.JobTypeProduct, Kind: models.AttributeText},
		{Name: "Hazmat", EntityType: models.JobTypeProduct, Kind: models.AttributeYesNo},
	}
	fields := append(services.ProductFields(), services.AttributeFieldSpecs(defs)...)
	headers := []string{"Title", "EAN", "Brand", "Sale Price", "Warranty Period", "Hazmat"}
	mapping := services.MapColumns(headers, fields)

	assert.Equal(t, "Warranty Period", mapping["attr:Warranty Period"])
	assert.Equal(t, "Hazmat", mapping["attr:Hazmat"])
}
