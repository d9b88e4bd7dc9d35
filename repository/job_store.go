package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

const (
	jobKeyPattern = "import:job:%s"
	jobQueueKey   = "import:queue"
	jobTTL        = 24 * time.Hour
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisJobStore keeps import job metadata as JSON documents in Redis and
// backs the processing queue with a list. Jobs expire a day after their
// last write; the DynamoDB history table is the durable audit trail.
type RedisJobStore struct {
	client *redis.Client
}

func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client}
}

func jobKey(id string) string {
	return fmt.Sprintf(jobKeyPattern, id)
}

func (s *RedisJobStore) CreateJob(ctx context.Context, job *models.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store job metadata: %w", err)
	}
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, id string) (*models.ImportJob, error) {
	val, err := s.client.Get(ctx, jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job metadata: %w", err)
	}

	var job models.ImportJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job metadata: %w", err)
	}
	return &job, nil
}

// UpdateJob applies the supplied fields to the stored job document and
// writes it back, refreshing the TTL. Fields not present are left alone
// (last-write-wins per field).
func (s *RedisJobStore) UpdateJob(ctx context.Context, id string, fields map[string]interface{}) error {
	key := jobKey(id)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read job metadata: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return fmt.Errorf("failed to parse job metadata: %w", err)
	}
	for k, v := range fields {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.client.Set(ctx, key, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store job metadata: %w", err)
	}
	return nil
}

func (s *RedisJobStore) Enqueue(ctx context.Context, jobID string) error {
	if err := s.client.RPush(ctx, jobQueueKey, jobID).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job id is available or the timeout elapses. A
// zero timeout blocks indefinitely. Returns ErrNotFound on timeout.
func (s *RedisJobStore) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := s.client.BLPop(ctx, timeout, jobQueueKey).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", ErrNotFound
	}
	return res[1], nil
}
