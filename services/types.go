package services

import (
	"context"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// ImportRunner executes a queued import job to completion. It is the seam
// between the queue worker and the pipeline; *ImportService is the
// production implementation.
type ImportRunner interface {
	RunImport(ctx context.Context, jobID string) error
}

// SubmitImportRequest describes a new import to register. The file must
// already be stored (locally or in object storage) before submission;
// processing happens asynchronously once a worker picks the job up.
type SubmitImportRequest struct {
	FileName     string
	FileSize     int64
	FilePath     string
	Type         models.JobType
	FieldMapping map[string]string
	MatchOptions *models.MatchOptions
	BatchSize    int
}

// ImportStatus is what status pollers receive. It mirrors the job record
// plus a flag telling clients whether failed groups were cut off.
type ImportStatus struct {
	ID            string                `json:"id"`
	Type          models.JobType        `json:"type"`
	Status        models.JobStatus      `json:"status"`
	StatusMessage string                `json:"status_message,omitempty"`
	Progress      int                   `json:"progress"`
	FileName      string                `json:"file_name"`
	TotalRows     int                   `json:"total_rows"`
	Results       *models.ImportResults `json:"results,omitempty"`
	CreatedAt     string                `json:"created_at"`
	CompletedAt   string                `json:"completed_at,omitempty"`
}
