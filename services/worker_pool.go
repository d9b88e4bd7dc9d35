package services

import (
	"context"
	"runtime"
	"sync"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

const maxTransformWorkers = 8

// TransformOutcome is one row's result from the transform pool. Exactly one
// of Product/Supplier is set on success; Err holds the skip reason.
type TransformOutcome struct {
	Line     int
	Product  *models.Product
	Supplier *SupplierRow
	Err      error
}

// TransformPool fans a chunk's rows across a fixed set of workers. Parsing
// and validation are CPU work, so the pool is sized to the machine, not the
// chunk. Outcomes come back in row order regardless of which worker ran
// them.
type TransformPool struct {
	tr      *RowTransformer
	workers int
}

func NewTransformPool(tr *RowTransformer, workers int) *TransformPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxTransformWorkers {
		workers = maxTransformWorkers
	}
	return &TransformPool{tr: tr, workers: workers}
}

// Run transforms every row and returns one outcome per row, index-aligned
// with the input. A cancelled context stops feeding workers; rows never fed
// carry the context error as their outcome.
func (p *TransformPool) Run(ctx context.Context, rows []Row) []TransformOutcome {
	out := make([]TransformOutcome, len(rows))
	if len(rows) == 0 {
		return out
	}

	workers := p.workers
	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = p.transform(rows[i])
			}
		}()
	}

	i := 0
feed:
	for ; i < len(rows); i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for ; i < len(rows); i++ {
		out[i] = TransformOutcome{Line: rows[i].Line, Err: ctx.Err()}
	}
	return out
}

func (p *TransformPool) transform(row Row) TransformOutcome {
	outcome := TransformOutcome{Line: row.Line}
	switch p.tr.JobType() {
	case models.JobTypeSupplier:
		sr, err := p.tr.TransformSupplier(row)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Supplier = sr
	default:
		product, err := p.tr.TransformProduct(row)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Product = product
	}
	return outcome
}
