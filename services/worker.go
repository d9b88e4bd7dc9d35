package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
)

const (
	dequeueTimeout  = 5 * time.Second
	dequeueErrDelay = 500 * time.Millisecond
)

// ImportWorker consumes queued job ids and runs each import to completion.
// Each loop handles one job at a time; Concurrency > 1 starts that many
// independent loops against the shared queue.
type ImportWorker struct {
	jobs        repository.JobStore
	runner      ImportRunner
	concurrency int
	logger      *zap.Logger
	wg          sync.WaitGroup
}

func NewImportWorker(jobs repository.JobStore, runner ImportRunner, concurrency int, logger *zap.Logger) *ImportWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportWorker{
		jobs:        jobs,
		runner:      runner,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Start launches the consume loops. They stop when ctx is cancelled; Wait
// blocks until any in-flight job has finished.
func (w *ImportWorker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
	w.logger.Info("import worker started", zap.Int("concurrency", w.concurrency))
}

// Wait blocks until every loop has returned.
func (w *ImportWorker) Wait() {
	w.wg.Wait()
}

func (w *ImportWorker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	logger := w.logger.With(zap.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			logger.Info("import worker stopping")
			return
		default:
		}

		jobID, err := w.jobs.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("import worker stopping")
				return
			}
			if err == repository.ErrNotFound {
				// Empty poll, go straight back to blocking.
				continue
			}
			logger.Error("queue read failed", zap.Error(err))
			select {
			case <-time.After(dequeueErrDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		if jobID == "" {
			continue
		}

		logger.Info("job dequeued", zap.String("job_id", jobID))
		if err := w.runner.RunImport(ctx, jobID); err != nil {
			logger.Error("import run failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}
}
