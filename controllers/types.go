package controllers

import (
	"context"
	"time"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

// Default configuration values
const (
	DefaultContextTimeout = 30 * time.Second

	// StatusReadTimeout bounds how long a status poll may wait on the job
	// store before answering with a synthetic in-progress snapshot.
	StatusReadTimeout = 2 * time.Second
)

// ImportServiceAPI defines the interface for import service operations
type ImportServiceAPI interface {
	SubmitImport(ctx context.Context, req services.SubmitImportRequest) (*models.ImportJob, error)
	JobStatus(ctx context.Context, jobID string) (*services.ImportStatus, error)
	CancelImport(ctx context.Context, jobID string) (*models.ImportJob, error)
}
