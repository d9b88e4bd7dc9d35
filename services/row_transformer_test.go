package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

func productTransformer(required []string, attrs []models.AttributeDefinition) *services.RowTransformer {
	mapping := map[string]string{
		"title":      "Title",
		"ean":        "EAN",
		"mpn":        "MPN",
		"brand":      "Brand",
		"sale_price": "Sale Price",
		"units_sold": "Units Sold",
	}
	return services.NewRowTransformer(models.JobTypeProduct, mapping, required, attrs, nil)
}

func supplierTransformer() *services.RowTransformer {
	mapping := map[string]string{
		"supplier_name":  "Supplier Name",
		"product_name":   "Product Name",
		"ean":            "EAN",
		"mpn":            "MPN",
		"cost":           "Cost",
		"supplier_stock": "Stock",
	}
	return services.NewRowTransformer(models.JobTypeSupplier, mapping, []string{"Supplier Name"}, nil, nil)
}

func TestTransformProduct_Basic(t *testing.T) {
	tr := productTransformer([]string{"Title", "EAN", "Brand", "Sale Price"}, nil)
	row := services.Row{Line: 2, Values: map[string]string{
		"Title":      " Wireless Mouse ",
		"EAN":        "8.40E+11",
		"MPN":        "WM-100",
		"Brand":      "Logi",
		"Sale Price": "$24.99",
		"Units Sold": "310",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", p.Title)
	assert.Equal(t, "840000000000", p.EAN)
	assert.False(t, p.PlaceholderEAN)
	assert.Equal(t, 24.99, p.SalePrice)
	assert.Equal(t, 310, p.UnitsSold)
	assert.False(t, tr.ForeignCurrencySeen())
}

func TestTransformProduct_MissingSalePriceSkipped(t *testing.T) {
	tr := productTransformer([]string{"Title", "Brand", "Sale Price"}, nil)
	row := services.Row{Line: 3, Values: map[string]string{
		"Title": "Mouse",
		"EAN":   "5012345678900",
		"Brand": "Logi",
	}}

	_, err := tr.TransformProduct(row)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Sale Price")
}

func TestTransformProduct_ZeroSalePriceKept(t *testing.T) {
	tr := productTransformer([]string{"Title", "Brand", "Sale Price"}, nil)
	row := services.Row{Line: 4, Values: map[string]string{
		"Title":      "Mouse",
		"EAN":        "5012345678900",
		"Brand":      "Logi",
		"Sale Price": "0",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.Zero(t, p.SalePrice)
}

func TestTransformProduct_Defaults(t *testing.T) {
	tr := productTransformer(nil, nil)
	row := services.Row{Line: 5, Values: map[string]string{
		"EAN":        "5012345678900",
		"Sale Price": "9.99",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProductTitle, p.Title)
	assert.Equal(t, models.DefaultBrand, p.Brand)
}

func TestTransformProduct_PlaceholderWhenEANMissing(t *testing.T) {
	tr := productTransformer(nil, nil)
	row := services.Row{Line: 6, Values: map[string]string{
		"Title":      "Desk Lamp",
		"Brand":      "Lumo",
		"Sale Price": "18.00",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.True(t, p.PlaceholderEAN)
	assert.True(t, services.IsPlaceholder(p.EAN))
	assert.LessOrEqual(t, len(p.EAN), 32)
}

func TestTransformProduct_ForeignCurrencyFlag(t *testing.T) {
	tr := productTransformer(nil, nil)
	row := services.Row{Line: 7, Values: map[string]string{
		"Title":      "Mouse",
		"EAN":        "5012345678900",
		"Brand":      "Logi",
		"Sale Price": "£24.99",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.Equal(t, 24.99, p.SalePrice)
	assert.True(t, tr.ForeignCurrencySeen())
}

func TestTransformProduct_CustomAttributes(t *testing.T) {
	attrs := []models.AttributeDefinition{
		{Name: "Weight", EntityType: models.JobTypeProduct, Kind: models.AttributeNumber},
		{Name: "Fragile", EntityType: models.JobTypeProduct, Kind: models.AttributeYesNo},
		{Name: "Season", EntityType: models.JobTypeProduct, Kind: models.AttributeText, Required: true, DefaultValue: "All Year"},
	}
	tr := productTransformer(nil, attrs)
	row := services.Row{Line: 8, Values: map[string]string{
		"Title":      "Mouse",
		"EAN":        "5012345678900",
		"Brand":      "Logi",
		"Sale Price": "24.99",
		"Weight":     "0.12",
		"Fragile":    "Yes",
	}}

	p, err := tr.TransformProduct(row)
	require.NoError(t, err)
	assert.Equal(t, 0.12, p.CustomAttributes["Weight"])
	assert.Equal(t, true, p.CustomAttributes["Fragile"])
	assert.Equal(t, "All Year", p.CustomAttributes["Season"])
}

func TestTransformSupplier_Basic(t *testing.T) {
	tr := supplierTransformer()
	row := services.Row{Line: 2, Values: map[string]string{
		"Supplier Name": "Acme Wholesale",
		"Product Name":  "Wireless Mouse",
		"EAN":           "5012345678900",
		"MPN":           "WM-100",
		"Cost":          "12.50",
		"Stock":         "44",
	}}

	sr, err := tr.TransformSupplier(row)
	require.NoError(t, err)
	assert.Equal(t, "Acme Wholesale", sr.SupplierName)
	assert.Equal(t, 12.50, sr.Offer.Cost)
	assert.Equal(t, 44, sr.Offer.Stock)
	assert.Equal(t, 1, sr.Offer.MOQ)
	assert.Equal(t, models.DefaultLeadTime, sr.Offer.LeadTime)
	assert.Equal(t, models.DefaultPaymentTerms, sr.Offer.PaymentTerms)
	assert.Equal(t, models.MatchMethodNone, sr.Offer.MatchMethod)
}

func TestTransformSupplier_MissingNameSkipped(t *testing.T) {
	tr := supplierTransformer()
	row := services.Row{Line: 3, Values: map[string]string{
		"Product Name": "Wireless Mouse",
		"Cost":         "12.50",
	}}

	_, err := tr.TransformSupplier(row)
	assert.Error(t, err)
}

func TestTransformSupplier_EANStaysEmpty(t *testing.T) {
	tr := supplierTransformer()
	row := services.Row{Line: 4, Values: map[string]string{
		"Supplier Name": "Acme Wholesale",
		"Product Name":  "Desk Lamp",
		"Cost":          "8.00",
	}}

	sr, err := tr.TransformSupplier(row)
	require.NoError(t, err)
	assert.Empty(t, sr.Offer.EAN)
	assert.False(t, sr.Offer.PlaceholderEAN)
}

func TestMakePlaceholder_Deterministic(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	a := services.MakePlaceholder(now, "Desk LampLumo", "row=1", "cost=8.00")
	b := services.MakePlaceholder(now, "Desk LampLumo", "row=1", "cost=8.00")
	c := services.MakePlaceholder(now, "Desk LampLumo", "row=2", "cost=9.00")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, services.IsPlaceholder(a))
	assert.LessOrEqual(t, len(a), 32)
	assert.LessOrEqual(t, len(c), 32)
}
