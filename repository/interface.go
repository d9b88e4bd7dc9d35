package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ProductRepo defines the catalog store operations the import pipeline
// uses. Identifier lookups are bulk: the matching engine collects every
// distinct identifier in a chunk and issues one query per batch, never one
// query per row.
type ProductRepo interface {
	FindByEANs(ctx context.Context, eans []string) ([]models.Product, error)
	FindByMPNs(ctx context.Context, mpns []string) ([]models.Product, error)
	FindByTitles(ctx context.Context, titles []string) ([]models.Product, error)
	UpsertByEAN(ctx context.Context, products []models.Product) (int64, error)
	InsertMany(ctx context.Context, products []models.Product) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// SupplierRepo manages suppliers and their offers.
type SupplierRepo interface {
	GetOrCreateByName(ctx context.Context, name string) (*models.Supplier, bool, error)
	MarkMatched(ctx context.Context, supplierIDs []string) error
	UpsertMatchedOffers(ctx context.Context, offers []models.SupplierOffer) (int64, error)
	ReplaceUnmatchedOffers(ctx context.Context, supplierID string, offers []models.SupplierOffer) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// AttributeRepo reads custom attribute definitions. Read-only to the
// pipeline.
type AttributeRepo interface {
	ListByEntityType(ctx context.Context, entityType models.JobType) ([]models.AttributeDefinition, error)
}

// JobStore persists import job metadata and backs the processing queue.
// UpdateJob applies only the supplied fields (last-write-wins).
type JobStore interface {
	CreateJob(ctx context.Context, job *models.ImportJob) error
	GetJob(ctx context.Context, id string) (*models.ImportJob, error)
	UpdateJob(ctx context.Context, id string, fields map[string]interface{}) error
	Enqueue(ctx context.Context, jobID string) error
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// HistoryRepo appends audit records for finished jobs.
type HistoryRepo interface {
	Put(ctx context.Context, record *models.ImportHistoryRecord) error
	ListByJob(ctx context.Context, jobID string) ([]models.ImportHistoryRecord, error)
	ListRecent(ctx context.Context, importType models.JobType, limit int32) ([]models.ImportHistoryRecord, error)
}
