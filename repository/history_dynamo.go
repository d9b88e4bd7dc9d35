package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// DynamoHistoryRepo appends import audit records to a DynamoDB table with
// primary key `job_id` (string) and sort key `created_at` (RFC3339 string).
type DynamoHistoryRepo struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoHistoryRepo(client *dynamodb.Client, table string) *DynamoHistoryRepo {
	return &DynamoHistoryRepo{client: client, table: table}
}

type ddbHistoryRecord struct {
	JobID             string `dynamodbav:"job_id"`
	Type              string `dynamodbav:"type"`
	FileName          string `dynamodbav:"file_name"`
	Status            string `dynamodbav:"status"`
	TotalRecords      int    `dynamodbav:"total_records"`
	SuccessfulImports int    `dynamodbav:"successful_imports"`
	FailedImports     int    `dynamodbav:"failed_imports"`
	DurationMillis    int64  `dynamodbav:"duration_ms"`
	CreatedAt         string `dynamodbav:"created_at"`
}

func toDDBHistory(record *models.ImportHistoryRecord) ddbHistoryRecord {
	return ddbHistoryRecord{
		JobID:             record.JobID,
		Type:              string(record.Type),
		FileName:          record.FileName,
		Status:            string(record.Status),
		TotalRecords:      record.TotalRecords,
		SuccessfulImports: record.SuccessfulImports,
		FailedImports:     record.FailedImports,
		DurationMillis:    record.DurationMillis,
		CreatedAt:         record.CreatedAt.Format(time.RFC3339),
	}
}

func fromDDBHistory(item ddbHistoryRecord) models.ImportHistoryRecord {
	record := models.ImportHistoryRecord{
		JobID:             item.JobID,
		Type:              models.JobType(item.Type),
		FileName:          item.FileName,
		Status:            models.JobStatus(item.Status),
		TotalRecords:      item.TotalRecords,
		SuccessfulImports: item.SuccessfulImports,
		FailedImports:     item.FailedImports,
		DurationMillis:    item.DurationMillis,
	}
	if t, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
		record.CreatedAt = t
	}
	return record
}

func (d *DynamoHistoryRepo) Put(ctx context.Context, record *models.ImportHistoryRecord) error {
	item, err := attributevalue.MarshalMap(toDDBHistory(record))
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	return withRetry(ctx, "history.put", func() error {
		_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: &d.table,
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("dynamodb PutItem failed: %w", err)
		}
		return nil
	})
}

func (d *DynamoHistoryRepo) ListByJob(ctx context.Context, jobID string) ([]models.ImportHistoryRecord, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &d.table,
		KeyConditionExpression: aws.String("job_id = :job_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":job_id": &types.AttributeValueMemberS{Value: jobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb Query failed: %w", err)
	}

	records := make([]models.ImportHistoryRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec ddbHistoryRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history item: %w", err)
		}
		records = append(records, fromDDBHistory(rec))
	}
	return records, nil
}

// ListRecent scans for the latest records, optionally filtered by import
// type. A scan is acceptable here: the history endpoint is a low-volume
// admin view and the table stays small relative to the catalog.
func (d *DynamoHistoryRepo) ListRecent(ctx context.Context, importType models.JobType, limit int32) ([]models.ImportHistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	input := &dynamodb.ScanInput{
		TableName: &d.table,
		Limit:     aws.Int32(limit),
	}
	if importType != "" {
		input.FilterExpression = aws.String("#t = :type")
		input.ExpressionAttributeNames = map[string]string{"#t": "type"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":type": &types.AttributeValueMemberS{Value: string(importType)},
		}
	}

	out, err := d.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
	}

	records := make([]models.ImportHistoryRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec ddbHistoryRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history item: %w", err)
		}
		records = append(records, fromDDBHistory(rec))
	}
	return records, nil
}
