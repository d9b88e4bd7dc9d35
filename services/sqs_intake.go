package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// ImportSubmitter accepts new import submissions. *ImportService
// implements it.
type ImportSubmitter interface {
	SubmitImport(ctx context.Context, req SubmitImportRequest) (*models.ImportJob, error)
}

// s3Event is the subset of the S3 notification payload the intake reads.
// Object keys arrive URL-encoded.
type s3Event struct {
	Event   string `json:"Event"`
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				Size int64  `json:"size"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// SQSIntake turns S3 upload notifications into queued import jobs, so
// files dropped straight into the bucket import without touching the HTTP
// API. Objects land under a type prefix (supplier/ or product/); anything
// else is ignored. Wire HandleMessage into an SQS consumer's polling loop.
type SQSIntake struct {
	imports ImportSubmitter
	logger  *zap.Logger
}

func NewSQSIntake(imports ImportSubmitter, logger *zap.Logger) *SQSIntake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSIntake{imports: imports, logger: logger}
}

// HandleMessage processes one notification body. Returning an error leaves
// the message on the queue for redelivery.
func (i *SQSIntake) HandleMessage(ctx context.Context, body string) error {
	var event s3Event
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return fmt.Errorf("failed to parse S3 notification: %w", err)
	}
	// S3 sends a TestEvent when bucket notifications are first configured.
	if event.Event == "s3:TestEvent" {
		return nil
	}

	for _, rec := range event.Records {
		if !strings.HasPrefix(rec.EventName, "ObjectCreated") {
			continue
		}
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			key = rec.S3.Object.Key
		}
		jobType, ok := jobTypeForKey(key)
		if !ok {
			// Misplaced objects are dropped, not retried; redelivery
			// would never make the prefix right.
			i.logger.Warn("ignoring uploaded object without a type prefix",
				zap.String("bucket", rec.S3.Bucket.Name),
				zap.String("key", key),
			)
			continue
		}

		job, err := i.imports.SubmitImport(ctx, SubmitImportRequest{
			FileName: path.Base(key),
			FileSize: rec.S3.Object.Size,
			FilePath: fmt.Sprintf("s3://%s/%s", rec.S3.Bucket.Name, key),
			Type:     jobType,
		})
		if err != nil {
			return fmt.Errorf("failed to submit import for s3://%s/%s: %w", rec.S3.Bucket.Name, key, err)
		}
		i.logger.Info("queued import from upload notification",
			zap.String("job_id", job.ID),
			zap.String("file", job.FileName),
			zap.String("type", string(jobType)),
		)
	}
	return nil
}

func jobTypeForKey(key string) (models.JobType, bool) {
	switch {
	case strings.HasPrefix(key, "supplier/"):
		return models.JobTypeSupplier, true
	case strings.HasPrefix(key, "product/"):
		return models.JobTypeProduct, true
	}
	return "", false
}
