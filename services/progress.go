package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
)

// Progress bands of the job's 0-100 scale: header reading and column
// mapping fill the first 30 points, data processing the next 55, and
// finalization the rest.
const (
	progressHeadersDone = 30
	progressDataDone    = 85
	progressComplete    = 100
)

// HeaderBandProgress maps a 0..1 fraction of the setup phase into the
// header band.
func HeaderBandProgress(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(fraction * progressHeadersDone)
}

// DataBandProgress maps rows processed over estimated total rows into the
// data band. An unknown total pins progress to the band floor.
func DataBandProgress(processed, total int64) int {
	if total <= 0 {
		return progressHeadersDone
	}
	frac := float64(processed) / float64(total)
	if frac > 1 {
		frac = 1
	}
	p := progressHeadersDone + int(frac*float64(progressDataDone-progressHeadersDone))
	if p > progressDataDone {
		p = progressDataDone
	}
	return p
}

// ProgressTracker drives one job's status machine in the job store:
// pending -> processing -> completed | failed, with monotonic progress.
// Late or retried updates can never regress the stored percentage, and a
// terminal transition happens at most once.
type ProgressTracker struct {
	store  repository.JobStore
	jobID  string
	logger *zap.Logger

	mu      sync.Mutex
	current int
	done    bool
}

// NewProgressTracker binds a tracker to one job.
func NewProgressTracker(store repository.JobStore, jobID string, logger *zap.Logger) *ProgressTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressTracker{store: store, jobID: jobID, logger: logger}
}

// Begin moves the job from pending to processing.
func (t *ProgressTracker) Begin(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = 0
	return t.store.UpdateJob(ctx, t.jobID, map[string]interface{}{
		"status":         models.JobStatusProcessing,
		"status_message": "Starting import",
		"progress":       0,
		"started_at":     time.Now(),
	})
}

// Current returns the last progress value handed to Update.
func (t *ProgressTracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// SetTotalRows records the estimated row count once the stream can provide
// one.
func (t *ProgressTracker) SetTotalRows(ctx context.Context, total int) {
	if err := t.store.UpdateJob(ctx, t.jobID, map[string]interface{}{"total_rows": total}); err != nil {
		t.logger.Warn("persisting estimated total rows failed", zap.Error(err))
	}
}

// Update persists max(current, progress) and an optional status message.
// A lower value than what was already written is absorbed silently.
func (t *ProgressTracker) Update(ctx context.Context, progress int, message string) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	if progress > progressComplete {
		progress = progressComplete
	}
	if progress < t.current {
		progress = t.current
	}
	changed := progress != t.current
	t.current = progress
	t.mu.Unlock()

	if !changed && message == "" {
		return
	}
	fields := map[string]interface{}{"progress": progress}
	if message != "" {
		fields["status_message"] = message
	}
	if err := t.store.UpdateJob(ctx, t.jobID, fields); err != nil {
		t.logger.Warn("persisting progress failed",
			zap.Int("progress", progress),
			zap.Error(err))
	}
}

// Complete moves the job to its successful terminal state with the final
// result summary. Only the first terminal transition wins.
func (t *ProgressTracker) Complete(ctx context.Context, results *models.ImportResults, message string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	t.current = progressComplete
	t.mu.Unlock()

	return t.store.UpdateJob(ctx, t.jobID, map[string]interface{}{
		"status":         models.JobStatusCompleted,
		"status_message": message,
		"progress":       progressComplete,
		"results":        results,
		"completed_at":   time.Now(),
	})
}

// Fail moves the job to its failed terminal state with a descriptive
// message. Progress stays wherever it was; whatever was already persisted
// by earlier batches remains valid.
func (t *ProgressTracker) Fail(ctx context.Context, message string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	t.mu.Unlock()

	return t.store.UpdateJob(ctx, t.jobID, map[string]interface{}{
		"status":         models.JobStatusFailed,
		"status_message": message,
		"completed_at":   time.Now(),
	})
}
