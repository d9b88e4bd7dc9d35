package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// ObjectStore is the slice of object storage the file source needs.
// pkg/aws.S3Store satisfies it.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, bucket, key string) error
}

// ImportFile is an opened upload ready for streaming.
type ImportFile struct {
	Name   string
	Size   int64
	Reader io.ReadCloser
}

func (f *ImportFile) Close() error {
	if f == nil || f.Reader == nil {
		return nil
	}
	return f.Reader.Close()
}

// FileSource resolves a job's stored file path into a readable stream.
// Paths of the form s3://bucket/key come from the presigned-upload flow;
// anything else is a file under the local upload directory.
type FileSource struct {
	store     ObjectStore
	bucket    string
	uploadDir string
	logger    *zap.Logger
}

func NewFileSource(store ObjectStore, bucket, uploadDir string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{store: store, bucket: bucket, uploadDir: uploadDir, logger: logger}
}

// Open returns the job's upload as a stream plus its size. The job's
// recorded file size wins over what the store reports; the store's value is
// the fallback for jobs created before the size was known.
func (fs *FileSource) Open(ctx context.Context, job *models.ImportJob) (*ImportFile, error) {
	path := strings.TrimSpace(job.FilePath)
	if path == "" {
		return nil, fmt.Errorf("job %s has no file path", job.ID)
	}

	if bucket, key, ok := splitObjectPath(path); ok {
		if fs.store == nil {
			return nil, fmt.Errorf("job %s references %s but object storage is not configured", job.ID, path)
		}
		if bucket == "" {
			bucket = fs.bucket
		}
		if bucket == "" {
			return nil, fmt.Errorf("no bucket configured for object %s", path)
		}
		body, size, err := fs.store.Download(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		if job.FileSize > 0 {
			size = job.FileSize
		}
		name := job.FileName
		if name == "" {
			name = filepath.Base(key)
		}
		return &ImportFile{Name: name, Size: size, Reader: body}, nil
	}

	local := fs.localPath(path)
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", local, err)
	}
	size := job.FileSize
	if size <= 0 {
		if info, statErr := f.Stat(); statErr == nil {
			size = info.Size()
		}
	}
	name := job.FileName
	if name == "" {
		name = filepath.Base(local)
	}
	return &ImportFile{Name: name, Size: size, Reader: f}, nil
}

// Cleanup removes the uploaded file once its job reaches a terminal state.
// Failures are logged, never returned: a leftover upload must not fail an
// otherwise finished import.
func (fs *FileSource) Cleanup(ctx context.Context, job *models.ImportJob) {
	path := strings.TrimSpace(job.FilePath)
	if path == "" {
		return
	}
	if bucket, key, ok := splitObjectPath(path); ok {
		if fs.store == nil {
			return
		}
		if bucket == "" {
			bucket = fs.bucket
		}
		if err := fs.store.Delete(ctx, bucket, key); err != nil {
			fs.logger.Warn("could not delete uploaded object",
				zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := os.Remove(fs.localPath(path)); err != nil && !os.IsNotExist(err) {
		fs.logger.Warn("could not delete uploaded file",
			zap.String("path", path), zap.Error(err))
	}
}

// localPath anchors relative paths under the upload directory. The leading
// slash before Clean collapses any ".." segments so an upload path can never
// climb out of the directory.
func (fs *FileSource) localPath(path string) string {
	if filepath.IsAbs(path) || fs.uploadDir == "" {
		return path
	}
	return filepath.Join(fs.uploadDir, filepath.Clean("/"+path))
}

// splitObjectPath splits "s3://bucket/key" into its parts. A path without a
// bucket segment keeps bucket empty so the configured default applies.
func splitObjectPath(path string) (bucket, key string, ok bool) {
	const scheme = "s3://"
	if !strings.HasPrefix(path, scheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, scheme)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i], rest[i+1:], true
	}
	return "", rest, true
}
