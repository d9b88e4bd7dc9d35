package aws

import (
    "context"
    "fmt"
    "io"
    "time"

    sdkaws "github.com/aws/aws-sdk-go-v2/aws"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates a new S3 client from AWS config.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
    return s3.NewFromConfig(cfg)
}

// S3Store wraps object storage access for uploaded import files.
type S3Store struct {
    client *s3.Client
}

func NewS3Store(cfg sdkaws.Config) *S3Store {
    return &S3Store{client: s3.NewFromConfig(cfg)}
}

// Download opens an object for streaming. The returned size is the object's
// Content-Length (0 when the store does not report one). The caller owns the
// reader and must close it.
func (s *S3Store) Download(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
    out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
        Bucket: &bucket,
        Key:    &key,
    })
    if err != nil {
        return nil, 0, fmt.Errorf("failed to get object s3://%s/%s: %w", bucket, key, err)
    }
    return out.Body, sdkaws.ToInt64(out.ContentLength), nil
}

// Delete removes an uploaded object once its import has finished.
func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
    _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
        Bucket: &bucket,
        Key:    &key,
    })
    if err != nil {
        return fmt.Errorf("failed to delete object s3://%s/%s: %w", bucket, key, err)
    }
    return nil
}

// GeneratePresignedPutURL generates a presigned PUT URL for the provided bucket/key.
func GeneratePresignedPutURL(ctx context.Context, cfg sdkaws.Config, bucket, key string, expirySeconds int64) (string, map[string]string, error) {
    client := NewS3Client(cfg)
    presigner := s3.NewPresignClient(client)

    input := &s3.PutObjectInput{
        Bucket: &bucket,
        Key:    &key,
    }

    opts := func(o *s3.PresignOptions) {
        o.Expires = time.Duration(expirySeconds) * time.Second
    }

    presigned, err := presigner.PresignPutObject(ctx, input, opts)
    if err != nil {
        return "", nil, fmt.Errorf("failed to presign put object: %w", err)
    }

    headers := make(map[string]string)
    for k, v := range presigned.SignedHeader {
        if len(v) > 0 {
            headers[k] = v[0]
        }
    }

    return presigned.URL, headers, nil
}
