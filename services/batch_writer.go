package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
)

const (
	defaultWriteBatch = 100
	defaultWriteDelay = 50 * time.Millisecond
)

// WriteReport sums up one record set's trip through the writer.
type WriteReport struct {
	Written int
	Failed  int
	// Err collects every failed batch's error; nil when all batches landed.
	Err error
}

func (r *WriteReport) merge(other WriteReport) {
	r.Written += other.Written
	r.Failed += other.Failed
	if other.Err == nil {
		return
	}
	if r.Err == nil {
		r.Err = other.Err
		return
	}
	r.Err = multierror.Append(r.Err, other.Err)
}

// BatchWriter drives bulk writes in small fixed-size batches. A failing
// batch is logged, counted and skipped so the remaining batches still run.
// A short pause between batches keeps the datastore responsive and yields
// CPU to the garbage collector during large imports.
type BatchWriter struct {
	products  repository.ProductRepo
	suppliers repository.SupplierRepo
	batchSize int
	delay     time.Duration
	logger    *zap.Logger
}

// NewBatchWriter builds a writer. Zero batchSize and delay pick the
// defaults (100 rows, 50ms); a negative delay disables the pause.
func NewBatchWriter(products repository.ProductRepo, suppliers repository.SupplierRepo, batchSize int, delay time.Duration, logger *zap.Logger) *BatchWriter {
	if batchSize <= 0 {
		batchSize = defaultWriteBatch
	}
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultWriteDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchWriter{
		products:  products,
		suppliers: suppliers,
		batchSize: batchSize,
		delay:     delay,
		logger:    logger,
	}
}

// WriteProducts writes catalog products, upserting on EAN. Rows carrying a
// synthesized placeholder identifier cannot conflict with existing documents,
// so they take the plain insert path.
func (w *BatchWriter) WriteProducts(ctx context.Context, products []models.Product) WriteReport {
	now := time.Now().UTC()
	var upserts, inserts []models.Product
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.New().String()
		}
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = now
		}
		products[i].UpdatedAt = now
		if products[i].PlaceholderEAN {
			inserts = append(inserts, products[i])
			continue
		}
		upserts = append(upserts, products[i])
	}

	report := w.forEachBatch(ctx, "products", len(upserts), func(lo, hi int) (int64, error) {
		return w.products.UpsertByEAN(ctx, upserts[lo:hi])
	})
	report.merge(w.forEachBatch(ctx, "placeholder products", len(inserts), func(lo, hi int) (int64, error) {
		return w.products.InsertMany(ctx, inserts[lo:hi])
	}))
	return report
}

// WriteMatchedOffers upserts matched offers on their (supplier, product)
// pair.
func (w *BatchWriter) WriteMatchedOffers(ctx context.Context, offers []models.SupplierOffer) WriteReport {
	for i := range offers {
		if offers[i].ID == "" {
			offers[i].ID = uuid.New().String()
		}
	}
	return w.forEachBatch(ctx, "matched offers", len(offers), func(lo, hi int) (int64, error) {
		return w.suppliers.UpsertMatchedOffers(ctx, offers[lo:hi])
	})
}

// WriteUnmatchedOffers replaces one supplier's unmatched offers keyed by
// EAN: prior rows with the same keys are deleted before the insert so
// re-imports never pile up stale placeholder rows.
func (w *BatchWriter) WriteUnmatchedOffers(ctx context.Context, supplierID string, offers []models.SupplierOffer) WriteReport {
	now := time.Now().UTC()
	for i := range offers {
		if offers[i].ID == "" {
			offers[i].ID = uuid.New().String()
		}
		if offers[i].CreatedAt.IsZero() {
			offers[i].CreatedAt = now
		}
		offers[i].UpdatedAt = now
		offers[i].SupplierID = supplierID
	}
	return w.forEachBatch(ctx, "unmatched offers", len(offers), func(lo, hi int) (int64, error) {
		return w.suppliers.ReplaceUnmatchedOffers(ctx, supplierID, offers[lo:hi])
	})
}

// forEachBatch walks [0,n) in batchSize steps, pausing between batches and
// isolating failures to the batch that raised them.
func (w *BatchWriter) forEachBatch(ctx context.Context, what string, n int, fn func(lo, hi int) (int64, error)) WriteReport {
	var report WriteReport
	var merr *multierror.Error
	for lo := 0; lo < n; lo += w.batchSize {
		hi := lo + w.batchSize
		if hi > n {
			hi = n
		}
		if lo > 0 && w.delay > 0 {
			select {
			case <-time.After(w.delay):
			case <-ctx.Done():
				report.Failed += n - lo
				merr = multierror.Append(merr, ctx.Err())
				report.Err = merr.ErrorOrNil()
				return report
			}
		}
		written, err := fn(lo, hi)
		if err != nil {
			report.Failed += hi - lo
			merr = multierror.Append(merr, fmt.Errorf("%s batch %d-%d: %w", what, lo, hi-1, err))
			w.logger.Error("batch write failed",
				zap.String("records", what),
				zap.Int("from", lo),
				zap.Int("to", hi-1),
				zap.Error(err))
			continue
		}
		report.Written += int(written)
	}
	report.Err = merr.ErrorOrNil()
	return report
}
