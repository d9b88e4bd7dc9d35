package services

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// Row is one parsed line of the source file, keyed by raw header.
type Row struct {
	Line   int
	Values map[string]string
}

// SupplierRow pairs a transformed offer with the supplier name it came from.
// The supplier record itself is resolved once per name, not per row.
type SupplierRow struct {
	SupplierName string
	Offer        models.SupplierOffer
}

// Monetary fields where an explicit 0 is a legitimate value, not a missing
// one. Their required check looks at the raw cell instead of the parsed
// number.
var monetaryFields = map[string]bool{
	"sale_price":    true,
	"cost":          true,
	"amazon_fee":    true,
	"buy_box_price": true,
}

// Aliases the upload UI uses for required field names.
var requiredAliases = map[string]string{
	"Supplier Name":  "supplier_name",
	"Supplier name":  "supplier_name",
	"Product Name":   "product_name",
	"Product name":   "product_name",
	"Title":          "title",
	"Brand":          "brand",
	"EAN":            "ean",
	"MPN":            "mpn",
	"Sale Price":     "sale_price",
	"Cost":           "cost",
	"Supplier Cost":  "cost",
	"Supplier Stock": "supplier_stock",
	"Supplier stock": "supplier_stock",
}

// RowTransformer turns raw rows into canonical records for one job. It is
// safe for concurrent use so chunk slices can be transformed in parallel.
type RowTransformer struct {
	jobType  models.JobType
	mapping  map[string]string
	required []string
	attrs    []models.AttributeDefinition
	logger   *zap.Logger

	foreignCurrency atomic.Bool
}

// NewRowTransformer builds a transformer bound to one job's field mapping,
// required-field list and custom attribute catalog.
func NewRowTransformer(jobType models.JobType, mapping map[string]string, required []string, attrs []models.AttributeDefinition, logger *zap.Logger) *RowTransformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowTransformer{
		jobType:  jobType,
		mapping:  mapping,
		required: required,
		attrs:    attrs,
		logger:   logger,
	}
}

// ForeignCurrencySeen reports whether any monetary cell carried a non-dollar
// currency symbol, so the caller can warn once per job.
func (t *RowTransformer) ForeignCurrencySeen() bool {
	return t.foreignCurrency.Load()
}

// JobType reports which record kind this transformer produces.
func (t *RowTransformer) JobType() models.JobType {
	return t.jobType
}

// cell resolves a target field to its raw cell value through the mapping.
func (t *RowTransformer) cell(row Row, field string) string {
	source, ok := t.mapping[field]
	if !ok {
		return ""
	}
	return row.Values[source]
}

func (t *RowTransformer) money(row Row, field string) (float64, string) {
	raw := t.cell(row, field)
	v, foreign := ParseMonetary(raw)
	if foreign {
		t.foreignCurrency.Store(true)
	}
	return v, raw
}

// TransformProduct converts one row into a catalog product. A nil product
// with an error means the row is skipped, never that the batch failed.
func (t *RowTransformer) TransformProduct(row Row) (*models.Product, error) {
	title := strings.TrimSpace(t.cell(row, "title"))
	if title == "" {
		title = models.DefaultProductTitle
	}
	brand := strings.TrimSpace(t.cell(row, "brand"))
	if brand == "" {
		brand = models.DefaultBrand
	}
	ean := RepairScientificNotation(t.cell(row, "ean"))

	salePrice, rawSale := t.money(row, "sale_price")
	amazonFee, rawFee := t.money(row, "amazon_fee")
	buyBox, rawBuyBox := t.money(row, "buy_box_price")

	p := &models.Product{
		Title:            title,
		EAN:              ean,
		MPN:              strings.TrimSpace(t.cell(row, "mpn")),
		ASIN:             strings.TrimSpace(t.cell(row, "asin")),
		UPC:              strings.TrimSpace(t.cell(row, "upc")),
		Brand:            brand,
		SalePrice:        salePrice,
		UnitsSold:        parseIntCell(t.cell(row, "units_sold"), 0),
		AmazonFee:        amazonFee,
		BuyBoxPrice:      buyBox,
		Category:         strings.TrimSpace(t.cell(row, "category")),
		Rating:           parseFloatCell(t.cell(row, "rating")),
		ReviewCount:      parseIntCell(t.cell(row, "review_count"), 0),
		CustomAttributes: t.customAttributes(row),
	}

	fields := map[string]interface{}{
		"title":         p.Title,
		"ean":           p.EAN,
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
	}
	raws := map[string]string{
		"sale_price":    rawSale,
		"amazon_fee":    rawFee,
		"buy_box_price": rawBuyBox,
	}
	if err := t.validateRequired(fields, raws, p.CustomAttributes); err != nil {
		return nil, err
	}

	if p.EAN == "" {
		p.EAN = MakePlaceholder(time.Now(), p.Title+p.Brand, rowSignature(row)...)
		p.PlaceholderEAN = true
	}
	return p, nil
}

// TransformSupplier converts one row into a supplier offer. The offer's EAN
// may legitimately stay empty here; the matching engine either inherits the
// matched product's EAN or synthesizes a placeholder for the unmatched set.
func (t *RowTransformer) TransformSupplier(row Row) (*SupplierRow, error) {
	name := strings.TrimSpace(t.cell(row, "supplier_name"))
	cost, rawCost := t.money(row, "cost")

	leadTime := strings.TrimSpace(t.cell(row, "lead_time"))
	if leadTime == "" {
		leadTime = models.DefaultLeadTime
	}
	paymentTerms := strings.TrimSpace(t.cell(row, "payment_terms"))
	if paymentTerms == "" {
		paymentTerms = models.DefaultPaymentTerms
	}

	offer := models.SupplierOffer{
		EAN:              RepairScientificNotation(t.cell(row, "ean")),
		MPN:              strings.TrimSpace(t.cell(row, "mpn")),
		ProductName:      strings.TrimSpace(t.cell(row, "product_name")),
		Brand:            strings.TrimSpace(t.cell(row, "brand")),
		Cost:             cost,
		Stock:            parseIntCell(t.cell(row, "supplier_stock"), 0),
		MOQ:              parseIntCell(t.cell(row, "moq"), 1),
		LeadTime:         leadTime,
		PaymentTerms:     paymentTerms,
		MatchMethod:      models.MatchMethodNone,
		CustomAttributes: t.customAttributes(row),
	}

	fields := map[string]interface{}{
		"supplier_name":  name,
		"product_name":   offer.ProductName,
		"ean":            offer.EAN,
		"mpn":            offer.MPN,
		"brand":          offer.Brand,
		"cost":           offer.Cost,
		"supplier_stock": offer.Stock,
		"moq":            offer.MOQ,
		"lead_time":      offer.LeadTime,
		"payment_terms":  offer.PaymentTerms,
	}
	raws := map[string]string{"cost": rawCost}
	if err := t.validateRequired(fields, raws, offer.CustomAttributes); err != nil {
		return nil, err
	}

	return &SupplierRow{SupplierName: name, Offer: offer}, nil
}

// customAttributes extracts and coerces every custom attribute defined for
// the job's entity type. Unparseable cells are dropped with a debug log;
// required attributes fall back to their declared default.
func (t *RowTransformer) customAttributes(row Row) map[string]interface{} {
	if len(t.attrs) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(t.attrs))
	for _, def := range t.attrs {
		raw, ok := t.attributeCell(row, def)
		if !ok || strings.TrimSpace(raw) == "" {
			if def.Required && def.DefaultValue != nil {
				out[def.Name] = def.DefaultValue
			}
			continue
		}
		v, err := coerceAttribute(def.Kind, raw)
		if err != nil {
			t.logger.Debug("dropping unparseable attribute cell",
				zap.String("attribute", def.Name),
				zap.Int("line", row.Line))
			if def.Required && def.DefaultValue != nil {
				out[def.Name] = def.DefaultValue
			}
			continue
		}
		out[def.Name] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (t *RowTransformer) attributeCell(row Row, def models.AttributeDefinition) (string, bool) {
	if source, ok := t.mapping["attr:"+def.Name]; ok {
		return row.Values[source], true
	}
	v, ok := row.Values[def.Name]
	return v, ok
}

// coerceAttribute applies the declared attribute kind to a raw cell.
func coerceAttribute(kind models.AttributeKind, raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)
	switch kind {
	case models.AttributeNumber:
		return cast.ToFloat64E(s)
	case models.AttributeYesNo:
		switch strings.ToLower(s) {
		case "yes", "true", "1":
			return true, nil
		default:
			return false, nil
		}
	case models.AttributeDate:
		return s, nil
	default:
		return s, nil
	}
}

// validateRequired rejects a row when any required field resolves to a falsy
// value. Monetary fields check the raw cell so an explicit 0 survives.
func (t *RowTransformer) validateRequired(fields map[string]interface{}, raws map[string]string, attrs map[string]interface{}) error {
	for _, name := range t.required {
		key := canonicalFieldKey(name)
		if monetaryFields[key] {
			if strings.TrimSpace(raws[key]) == "" {
				return fmt.Errorf("missing required field %q", name)
			}
			continue
		}
		v, ok := fields[key]
		if !ok {
			v, ok = t.attributeValue(attrs, key)
		}
		if !ok || isFalsy(v) {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

func (t *RowTransformer) attributeValue(attrs map[string]interface{}, key string) (interface{}, bool) {
	for _, def := range t.attrs {
		if NormalizeHeader(def.Name) == key {
			v, ok := attrs[def.Name]
			return v, ok
		}
	}
	return nil, false
}

// canonicalFieldKey resolves a required-field name to its canonical
// property: a known UI alias first, snake_case otherwise.
func canonicalFieldKey(name string) string {
	if key, ok := requiredAliases[name]; ok {
		return key
	}
	return NormalizeHeader(name)
}

func isFalsy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	default:
		return false
	}
}

func parseIntCell(raw string, fallback int) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return fallback
	}
	return int(f)
}

func parseFloatCell(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0
	}
	return f
}

const (
	placeholderPrefix = "PLC-"
	placeholderMaxLen = 32
)

// MakePlaceholder builds a deterministic stand-in identifier for a record
// with no real one: a short slug of the identifying text, a millisecond
// timestamp, and a content hash so rows differing anywhere in their source
// data never collide. Bounded to placeholderMaxLen.
func MakePlaceholder(now time.Time, label string, parts ...string) string {
	slug := strings.ToUpper(NormalizeIdentifier(label))
	if len(slug) > 8 {
		slug = slug[:8]
	}
	if slug == "" {
		slug = "X"
	}
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	id := fmt.Sprintf("%s%s-%s-%08x", placeholderPrefix, slug, strconv.FormatInt(now.UnixMilli(), 36), h.Sum32())
	if len(id) > placeholderMaxLen {
		id = id[:placeholderMaxLen]
	}
	return id
}

// IsPlaceholder reports whether an identifier was synthesized by
// MakePlaceholder rather than read from source data.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// rowSignature flattens a row into a deterministic list of header=value
// parts for content hashing.
func rowSignature(row Row) []string {
	keys := make([]string, 0, len(row.Values))
	for k := range row.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+row.Values[k])
	}
	return parts
}
