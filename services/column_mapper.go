package services

import (
	"strings"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// FieldSpec describes one mappable target field: its canonical snake_case
// name, the header tokens that identify it, and whether a row missing it is
// rejected.
type FieldSpec struct {
	Name     string
	Synonyms []string
	Required bool
}

// ProductFields returns the catalog item fields in claim-priority order.
func ProductFields() []FieldSpec {
	return []FieldSpec{
		{Name: "title", Synonyms: []string{"title", "product_title", "product_name"}, Required: true},
		{Name: "ean", Synonyms: []string{"ean", "ean_code", "barcode"}, Required: true},
		{Name: "mpn", Synonyms: []string{"mpn", "manufacturer_part", "manufacturer_part_number"}},
		{Name: "brand", Synonyms: []string{"brand", "brand_name"}, Required: true},
		{Name: "sale_price", Synonyms: []string{"sale_price", "saleprice"}, Required: true},
		{Name: "units_sold", Synonyms: []string{"units_sold", "unit_sold", "monthly_units"}},
		{Name: "amazon_fee", Synonyms: []string{"amazon_fee"}},
		{Name: "buy_box_price", Synonyms: []string{"buy_box_price"}},
		{Name: "category", Synonyms: []string{"category"}},
		{Name: "rating", Synonyms: []string{"rating"}},
		{Name: "review_count", Synonyms: []string{"review_count", "review", "reviews"}},
		{Name: "asin", Synonyms: []string{"asin"}},
		{Name: "upc", Synonyms: []string{"upc"}},
	}
}

// SupplierFields returns the supplier offer fields in claim-priority order.
// Only supplier_name is hard-required; everything else degrades to defaults.
func SupplierFields() []FieldSpec {
	return []FieldSpec{
		{Name: "supplier_name", Synonyms: []string{"supplier_name", "supplier", "vendor", "vendor_name"}, Required: true},
		{Name: "product_name", Synonyms: []string{"product_name", "product_title", "title", "description"}},
		{Name: "ean", Synonyms: []string{"ean", "ean_code", "barcode"}},
		{Name: "mpn", Synonyms: []string{"mpn", "manufacturer_part", "part_number"}},
		{Name: "brand", Synonyms: []string{"brand", "brand_name"}},
		{Name: "cost", Synonyms: []string{"cost", "supplier_cost", "cost_price", "unit_price", "price"}},
		{Name: "supplier_stock", Synonyms: []string{"supplier_stock", "stock", "quantity", "qty"}},
		{Name: "moq", Synonyms: []string{"moq", "minimum_order_quantity", "minimum_order"}},
		{Name: "lead_time", Synonyms: []string{"lead_time", "leadtime"}},
		{Name: "payment_terms", Synonyms: []string{"payment_terms", "terms"}},
	}
}

// FieldsForType selects the static field catalog for a job type.
func FieldsForType(jobType models.JobType) []FieldSpec {
	if jobType == models.JobTypeSupplier {
		return SupplierFields()
	}
	return ProductFields()
}

// AttributeFieldSpecs converts custom attribute definitions into mappable
// fields, claimed after the static catalog.
func AttributeFieldSpecs(defs []models.AttributeDefinition) []FieldSpec {
	specs := make([]FieldSpec, 0, len(defs))
	for _, def := range defs {
		norm := NormalizeHeader(def.Name)
		if norm == "" {
			continue
		}
		specs = append(specs, FieldSpec{
			Name:     "attr:" + def.Name,
			Synonyms: []string{norm},
			Required: def.Required,
		})
	}
	return specs
}

// NormalizeHeader canonicalizes a raw header: lowercase, runs of
// non-alphanumerics become a single underscore, edges trimmed.
func NormalizeHeader(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		} else {
			pendingSep = true
		}
	}
	return b.String()
}

// MapColumns resolves target fields to source headers. Pass one takes exact
// normalized-synonym hits; pass two falls back to substring containment in
// either direction. Each header and each field is claimed at most once, in
// catalog priority order. Fields with no plausible header stay absent.
func MapColumns(headers []string, fields []FieldSpec) map[string]string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}
	claimed := make([]bool, len(headers))
	mapping := make(map[string]string, len(fields))

	for _, f := range fields {
		for i, norm := range normalized {
			if claimed[i] || norm == "" {
				continue
			}
			if exactSynonym(f.Synonyms, norm) {
				mapping[f.Name] = headers[i]
				claimed[i] = true
				break
			}
		}
	}

	for _, f := range fields {
		if _, done := mapping[f.Name]; done {
			continue
		}
		for i, norm := range normalized {
			if claimed[i] || norm == "" {
				continue
			}
			if fuzzySynonym(f.Synonyms, norm) {
				mapping[f.Name] = headers[i]
				claimed[i] = true
				break
			}
		}
	}
	return mapping
}

func exactSynonym(synonyms []string, header string) bool {
	for _, s := range synonyms {
		if s == header {
			return true
		}
	}
	return false
}

func fuzzySynonym(synonyms []string, header string) bool {
	for _, s := range synonyms {
		if strings.Contains(header, s) || strings.Contains(s, header) {
			return true
		}
	}
	return false
}
