package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

// ---- mock product repo ----

type stubProductRepo struct {
	mu      sync.Mutex
	catalog []models.Product
	upserts [][]models.Product
	inserts [][]models.Product
	failOn  map[int]error // upsert call ordinal -> error
	findErr error
}

func (s *stubProductRepo) FindByEANs(ctx context.Context, eans []string) ([]models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	want := make(map[string]bool, len(eans))
	for _, e := range eans {
		want[e] = true
	}
	var out []models.Product
	for _, p := range s.catalog {
		if want[p.EAN] {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindByMPNs is exact like the real store: normalization happens in the
// matcher, not the query.
func (s *stubProductRepo) FindByMPNs(ctx context.Context, mpns []string) ([]models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	want := make(map[string]bool, len(mpns))
	for _, m := range mpns {
		want[m] = true
	}
	var out []models.Product
	for _, p := range s.catalog {
		if p.MPN != "" && want[p.MPN] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) FindByTitles(ctx context.Context, titles []string) ([]models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	want := make(map[string]bool, len(titles))
	for _, t := range titles {
		want[strings.ToLower(t)] = true
	}
	var out []models.Product
	for _, p := range s.catalog {
		if want[strings.ToLower(p.Title)] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) UpsertByEAN(ctx context.Context, products []models.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := len(s.upserts)
	s.upserts = append(s.upserts, append([]models.Product(nil), products...))
	if err, ok := s.failOn[call]; ok {
		return 0, err
	}
	return int64(len(products)), nil
}

func (s *stubProductRepo) InsertMany(ctx context.Context, products []models.Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, append([]models.Product(nil), products...))
	return int64(len(products)), nil
}

func (s *stubProductRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (s *stubProductRepo) upsertedTotal() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Product
	for _, batch := range s.upserts {
		all = append(all, batch...)
	}
	return all
}

// ---- mock supplier repo ----

type stubSupplierRepo struct {
	mu          sync.Mutex
	suppliers   map[string]*models.Supplier
	created     []string
	marked      [][]string
	matched     [][]models.SupplierOffer
	replaced    map[string][][]models.SupplierOffer
	failMatched map[int]error
	failReplace map[int]error
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{
		suppliers: map[string]*models.Supplier{},
		replaced:  map[string][][]models.SupplierOffer{},
	}
}

func (s *stubSupplierRepo) GetOrCreateByName(ctx context.Context, name string) (*models.Supplier, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sup, ok := s.suppliers[name]; ok {
		return sup, false, nil
	}
	sup := &models.Supplier{ID: "sup-" + name, Name: name}
	s.suppliers[name] = sup
	s.created = append(s.created, name)
	return sup, true, nil
}

func (s *stubSupplierRepo) MarkMatched(ctx context.Context, supplierIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, append([]string(nil), supplierIDs...))
	return nil
}

func (s *stubSupplierRepo) UpsertMatchedOffers(ctx context.Context, offers []models.SupplierOffer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := len(s.matched)
	s.matched = append(s.matched, append([]models.SupplierOffer(nil), offers...))
	if err, ok := s.failMatched[call]; ok {
		return 0, err
	}
	return int64(len(offers)), nil
}

func (s *stubSupplierRepo) ReplaceUnmatchedOffers(ctx context.Context, supplierID string, offers []models.SupplierOffer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := 0
	for _, batches := range s.replaced {
		calls += len(batches)
	}
	s.replaced[supplierID] = append(s.replaced[supplierID], append([]models.SupplierOffer(nil), offers...))
	if err, ok := s.failReplace[calls]; ok {
		return 0, err
	}
	return int64(len(offers)), nil
}

func (s *stubSupplierRepo) EnsureIndexes(ctx context.Context) error { return nil }

// ---- tests ----

func sampleProducts(n int) []models.Product {
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{
			Title:     "Product " + string(rune('A'+i)),
			EAN:       "500000000000" + string(rune('0'+i)),
			Brand:     "Acme",
			SalePrice: 9.99,
		}
	}
	return out
}

func sampleOffers(n int) []models.SupplierOffer {
	out := make([]models.SupplierOffer, n)
	for i := range out {
		out[i] = models.SupplierOffer{
			ProductName: "Offer " + string(rune('A'+i)),
			EAN:         "500000000000" + string(rune('0'+i)),
			Cost:        4.25,
			Stock:       10,
		}
	}
	return out
}

func TestBatchWriter_WriteProducts_SplitsIntoBatches(t *testing.T) {
	repo := &stubProductRepo{}
	w := services.NewBatchWriter(repo, newStubSupplierRepo(), 2, -1, nil)

	report := w.WriteProducts(context.Background(), sampleProducts(5))

	require.NoError(t, report.Err)
	assert.Equal(t, 5, report.Written)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, repo.upserts, 3)
	assert.Len(t, repo.upserts[0], 2)
	assert.Len(t, repo.upserts[1], 2)
	assert.Len(t, repo.upserts[2], 1)
}

func TestBatchWriter_WriteProducts_FillsIdentity(t *testing.T) {
	repo := &stubProductRepo{}
	w := services.NewBatchWriter(repo, newStubSupplierRepo(), 10, -1, nil)

	products := sampleProducts(3)
	products[1].ID = "keep-me"
	existing := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	products[2].CreatedAt = existing

	report := w.WriteProducts(context.Background(), products)
	require.NoError(t, report.Err)

	written := repo.upsertedTotal()
	require.Len(t, written, 3)
	seen := map[string]bool{}
	for _, p := range written {
		require.NotEmpty(t, p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.False(t, p.CreatedAt.IsZero())
		assert.False(t, p.UpdatedAt.IsZero())
	}
	assert.Equal(t, "keep-me", written[1].ID)
	assert.Equal(t, existing, written[2].CreatedAt)
}

func TestBatchWriter_WriteProducts_InsertsPlaceholders(t *testing.T) {
	repo := &stubProductRepo{}
	w := services.NewBatchWriter(repo, newStubSupplierRepo(), 10, -1, nil)

	products := sampleProducts(3)
	products[1].EAN = "PLC-9f3a-000001"
	products[1].PlaceholderEAN = true

	report := w.WriteProducts(context.Background(), products)

	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Written)
	require.Len(t, repo.upserts, 1)
	assert.Len(t, repo.upserts[0], 2)
	require.Len(t, repo.inserts, 1)
	require.Len(t, repo.inserts[0], 1)
	assert.True(t, repo.inserts[0][0].PlaceholderEAN)
}

func TestBatchWriter_WriteProducts_IsolatesFailingBatch(t *testing.T) {
	repo := &stubProductRepo{failOn: map[int]error{1: errors.New("socket reset")}}
	w := services.NewBatchWriter(repo, newStubSupplierRepo(), 2, -1, nil)

	report := w.WriteProducts(context.Background(), sampleProducts(5))

	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 2, report.Failed)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "batch 2-3")
	assert.Contains(t, report.Err.Error(), "socket reset")
	assert.Len(t, repo.upserts, 3, "remaining batches still run")
}

func TestBatchWriter_WriteMatchedOffers(t *testing.T) {
	suppliers := newStubSupplierRepo()
	w := services.NewBatchWriter(&stubProductRepo{}, suppliers, 3, -1, nil)

	offers := sampleOffers(4)
	for i := range offers {
		offers[i].SupplierID = "sup-1"
		offers[i].ProductID = "prod-1"
	}
	report := w.WriteMatchedOffers(context.Background(), offers)

	require.NoError(t, report.Err)
	assert.Equal(t, 4, report.Written)
	require.Len(t, suppliers.matched, 2)
	for _, batch := range suppliers.matched {
		for _, o := range batch {
			assert.NotEmpty(t, o.ID)
		}
	}
}

func TestBatchWriter_WriteUnmatchedOffers_StampsSupplier(t *testing.T) {
	suppliers := newStubSupplierRepo()
	w := services.NewBatchWriter(&stubProductRepo{}, suppliers, 10, -1, nil)

	report := w.WriteUnmatchedOffers(context.Background(), "sup-9", sampleOffers(3))

	require.NoError(t, report.Err)
	assert.Equal(t, 3, report.Written)
	batches := suppliers.replaced["sup-9"]
	require.Len(t, batches, 1)
	for _, o := range batches[0] {
		assert.Equal(t, "sup-9", o.SupplierID)
		assert.NotEmpty(t, o.ID)
		assert.False(t, o.CreatedAt.IsZero())
		assert.False(t, o.UpdatedAt.IsZero())
	}
}

func TestBatchWriter_CancelledContextStopsBetweenBatches(t *testing.T) {
	repo := &stubProductRepo{}
	w := services.NewBatchWriter(repo, newStubSupplierRepo(), 2, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := w.WriteProducts(ctx, sampleProducts(5))

	// First batch runs before the inter-batch pause notices the dead context.
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 3, report.Failed)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), context.Canceled.Error())
	assert.Len(t, repo.upserts, 1)
}
