package models

import "time"

// ImportHistoryRecord is an append-only audit entry written when a job
// reaches a terminal state. Stored in DynamoDB keyed by job id.
type ImportHistoryRecord struct {
	JobID             string    `json:"job_id" dynamodbav:"job_id"`
	Type              JobType   `json:"type" dynamodbav:"type"`
	FileName          string    `json:"file_name" dynamodbav:"file_name"`
	Status            JobStatus `json:"status" dynamodbav:"status"`
	TotalRecords      int       `json:"total_records" dynamodbav:"total_records"`
	SuccessfulImports int       `json:"successful_imports" dynamodbav:"successful_imports"`
	FailedImports     int       `json:"failed_imports" dynamodbav:"failed_imports"`
	DurationMillis    int64     `json:"duration_ms" dynamodbav:"duration_ms"`
	CreatedAt         time.Time `json:"created_at" dynamodbav:"created_at"`
}
