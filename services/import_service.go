package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/EhsanMalik360/productsmappingapp-sub002/common/errors"
	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
)

const (
	defaultLookupBatch  = 5000
	defaultCandidateCap = 30000
	maxStoredErrorLen   = 500

	// defaultJobBatchSize is the persistence batch size stamped on jobs
	// submitted without an explicit override.
	defaultJobBatchSize = 500

	// maxReportedFailedGroups bounds the status payload; a bad file can
	// accumulate far more groups than a poller wants back.
	maxReportedFailedGroups = 50
)

// CompletionPublisher pushes terminal job notifications to interested
// consumers. pkg/aws.SNSClient satisfies it.
type CompletionPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// ImportConfig carries the pipeline tunables. Zero values pick defaults.
type ImportConfig struct {
	// ChunkSize overrides the file-size-derived chunk size when > 0.
	ChunkSize int
	// HighWaterBytes / LowWaterBytes bound the memory throttle.
	HighWaterBytes uint64
	LowWaterBytes  uint64
	// TransformWorkers sizes the row-transform pool.
	TransformWorkers int
	// LookupBatch is how many identifiers go into one catalog query.
	LookupBatch int
	// CandidateCap bounds the prefetched candidate set per chunk.
	CandidateCap int
	// CompletionTopic, when set, receives a notification per finished job.
	CompletionTopic string
}

func (c ImportConfig) lookupBatch() int {
	if c.LookupBatch > 0 {
		return c.LookupBatch
	}
	return defaultLookupBatch
}

func (c ImportConfig) candidateCap() int {
	if c.CandidateCap > 0 {
		return c.CandidateCap
	}
	return defaultCandidateCap
}

// ImportService runs queued import jobs end to end: stream the upload,
// transform rows, match supplier offers against the catalog, persist in
// batches and keep job progress current. One instance serves all jobs.
type ImportService struct {
	jobs       repository.JobStore
	products   repository.ProductRepo
	suppliers  repository.SupplierRepo
	history    repository.HistoryRepo
	attributes *AttributeCache
	files      *FileSource
	publisher  CompletionPublisher
	cfg        ImportConfig
	logger     *zap.Logger
}

func NewImportService(
	jobs repository.JobStore,
	products repository.ProductRepo,
	suppliers repository.SupplierRepo,
	history repository.HistoryRepo,
	attributes *AttributeCache,
	files *FileSource,
	publisher CompletionPublisher,
	cfg ImportConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		jobs:       jobs,
		products:   products,
		suppliers:  suppliers,
		history:    history,
		attributes: attributes,
		files:      files,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// SubmitImport registers a new job and queues it for the background worker.
// The upload must already be stored; callers hand over its reference and
// get back the pending job record. Processing happens asynchronously.
func (s *ImportService) SubmitImport(ctx context.Context, req SubmitImportRequest) (*models.ImportJob, error) {
	switch req.Type {
	case models.JobTypeProduct, models.JobTypeSupplier:
	default:
		return nil, fmt.Errorf("unsupported import type %q", req.Type)
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, fmt.Errorf("file path is required")
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = defaultJobBatchSize
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = filepath.Base(req.FilePath)
	}

	job := &models.ImportJob{
		ID:            uuid.New().String(),
		FileName:      fileName,
		FileSize:      req.FileSize,
		FilePath:      req.FilePath,
		Type:          req.Type,
		Status:        models.JobStatusPending,
		StatusMessage: "Queued for processing",
		FieldMapping:  req.FieldMapping,
		MatchOptions:  req.MatchOptions,
		BatchSize:     batchSize,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	if err := s.jobs.Enqueue(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.Info("import job queued",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("file", job.FileName),
		zap.Int64("size", job.FileSize),
	)
	return job, nil
}

// JobStatus returns a read-only snapshot of a job for status pollers.
func (s *ImportService) JobStatus(ctx context.Context, jobID string) (*ImportStatus, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return statusSnapshot(job), nil
}

// statusSnapshot converts a job record into the poller-facing shape,
// cutting oversized failed-group lists down to maxReportedFailedGroups.
func statusSnapshot(job *models.ImportJob) *ImportStatus {
	snap := &ImportStatus{
		ID:            job.ID,
		Type:          job.Type,
		Status:        job.Status,
		StatusMessage: job.StatusMessage,
		Progress:      job.Progress,
		FileName:      job.FileName,
		TotalRows:     job.TotalRows,
		CreatedAt:     job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		snap.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	if job.Results != nil {
		results := *job.Results
		if len(results.FailedGroups) > maxReportedFailedGroups {
			results.FailedGroups = results.FailedGroups[:maxReportedFailedGroups]
			results.Truncated = true
		}
		snap.Results = &results
	}
	return snap
}

// CancelImport marks a pending or processing job failed so the pipeline
// stops at its next job-store touch. Terminal jobs cannot be cancelled.
func (s *ImportService) CancelImport(ctx context.Context, jobID string) (*models.ImportJob, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		return nil, apperrors.ErrJobNotCancelable
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":         models.JobStatusFailed,
		"status_message": "Cancelled by user",
		"completed_at":   now,
	}
	if err := s.jobs.UpdateJob(ctx, jobID, updates); err != nil {
		return nil, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	job.Status = models.JobStatusFailed
	job.StatusMessage = "Cancelled by user"
	job.CompletedAt = &now
	s.logger.Info("import job cancelled", zap.String("job_id", jobID))
	return job, nil
}

// runState is the per-job mutable state threaded through chunk processing.
type runState struct {
	job      *models.ImportJob
	priority []string
	pool     *TransformPool
	writer   *BatchWriter
	throttle *MemoryThrottle
	results  models.ImportResults

	seenEANs         map[string]bool
	seenOfferKeys    map[string]bool
	supplierCache    map[string]*models.Supplier
	matchedSuppliers map[string]bool
	failedGroups     []models.FailedGroup
	rowSkips         int
	duplicates       int
}

func (st *runState) noteFailedGroup(rows []Row, count int, err error) {
	if count <= 0 || err == nil {
		return
	}
	st.failedGroups = append(st.failedGroups, models.FailedGroup{
		FirstRow: rows[0].Line,
		LastRow:  rows[len(rows)-1].Line,
		Count:    count,
		Error:    truncateError(err, maxStoredErrorLen),
	})
}

func (st *runState) matchedSupplierIDs() []string {
	ids := make([]string, 0, len(st.matchedSuppliers))
	for id := range st.matchedSuppliers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RunImport executes one queued import from start to terminal state. It is
// the pipeline's single entry point; the worker calls it once per dequeued
// job id. Processing failures become terminal job states, not returned
// errors: the method only errors when the job itself cannot be loaded or
// marked as started.
func (s *ImportService) RunImport(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		s.logger.Info("skipping job already in terminal state",
			zap.String("job_id", job.ID), zap.String("status", string(job.Status)))
		return nil
	}

	logger := s.logger.With(zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	tracker := NewProgressTracker(s.jobs, job.ID, logger)
	if err := tracker.Begin(ctx); err != nil {
		return fmt.Errorf("failed to mark job %s processing: %w", job.ID, err)
	}
	started := time.Now()
	logger.Info("import started",
		zap.String("file", job.FileName), zap.Int64("size", job.FileSize))

	file, err := s.files.Open(ctx, job)
	if err != nil {
		s.finishFailed(ctx, tracker, job, started,
			fmt.Sprintf("Could not open uploaded file: %v", err))
		return nil
	}
	defer file.Close()

	tracker.Update(ctx, HeaderBandProgress(0.2), "Reading file headers")

	throttle := NewMemoryThrottle(s.cfg.HighWaterBytes, s.cfg.LowWaterBytes, logger)
	throttle.Start(ctx)
	defer throttle.Stop()

	stream, err := NewChunkStream(file.Reader, file.Name, file.Size,
		ChunkSizeFor(file.Size, s.cfg.ChunkSize), throttle, logger)
	if err != nil {
		s.finishFailed(ctx, tracker, job, started,
			fmt.Sprintf("Could not read file headers: %v", err))
		return nil
	}
	defer stream.Close()

	tracker.Update(ctx, HeaderBandProgress(0.5), "Mapping columns")

	attrs, err := s.attributes.Definitions(ctx, job.Type)
	if err != nil {
		// Definitions are an enrichment; a missing catalog never blocks
		// the import itself.
		logger.Warn("proceeding without custom attribute definitions", zap.Error(err))
		attrs = nil
	}

	mapping := job.FieldMapping
	if len(mapping) == 0 {
		fields := append(FieldsForType(job.Type), AttributeFieldSpecs(attrs)...)
		mapping = MapColumns(stream.Headers(), fields)
		logger.Info("columns auto-mapped", zap.Int("mapped", len(mapping)))
		if err := s.jobs.UpdateJob(ctx, job.ID, map[string]interface{}{
			"field_mapping": mapping,
		}); err != nil {
			logger.Warn("could not persist auto-mapping", zap.Error(err))
		}
	}
	if missing := missingRequiredColumns(job.Type, mapping); len(missing) > 0 {
		s.finishFailed(ctx, tracker, job, started,
			"Missing required columns: "+strings.Join(missing, ", "))
		return nil
	}

	transformer := NewRowTransformer(job.Type, mapping, rowRequiredFields(job.Type), attrs, logger)
	st := &runState{
		job:              job,
		priority:         matchPriority(job),
		pool:             NewTransformPool(transformer, s.cfg.TransformWorkers),
		writer:           NewBatchWriter(s.products, s.suppliers, job.BatchSize, 0, logger),
		throttle:         throttle,
		seenEANs:         map[string]bool{},
		seenOfferKeys:    map[string]bool{},
		supplierCache:    map[string]*models.Supplier{},
		matchedSuppliers: map[string]bool{},
	}
	st.results.MatchStats = models.NewMatchStats()

	tracker.Update(ctx, HeaderBandProgress(1.0), "Processing data rows")

	lastEstimate := 0
	for {
		rows, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			s.finishFailed(ctx, tracker, job, started,
				fmt.Sprintf("File read failed after %d rows: %v", stream.RowsRead(), err))
			return nil
		}

		s.processChunk(ctx, st, rows)
		st.results.TotalRecords = int(stream.RowsRead())

		if est := stream.EstimatedTotalRows(); est > 0 && est != lastEstimate {
			tracker.SetTotalRows(ctx, est)
			lastEstimate = est
		}
		tracker.Update(ctx, DataBandProgress(stream.RowsRead(), int64(lastEstimate)),
			fmt.Sprintf("Processed %d rows", stream.RowsRead()))

		// There is no in-band cancel signal: a caller stops an import by
		// failing the job out of band, which we notice here.
		if fresh, err := s.jobs.GetJob(ctx, job.ID); err == nil && fresh.Status.Terminal() {
			logger.Info("job reached terminal state out of band, stopping",
				zap.String("status", string(fresh.Status)))
			return nil
		}
	}

	st.results.TotalRecords = int(stream.RowsRead())
	tracker.SetTotalRows(ctx, st.results.TotalRecords)
	tracker.Update(ctx, DataBandProgress(1, 1), "Finalizing import")

	if job.Type == models.JobTypeSupplier {
		if ids := st.matchedSupplierIDs(); len(ids) > 0 {
			if err := s.suppliers.MarkMatched(ctx, ids); err != nil {
				logger.Warn("could not flag matched suppliers", zap.Error(err))
			}
		}
	}
	tracker.Update(ctx, 92, "Recording results")

	if failed := st.results.TotalRecords - st.results.SuccessfulImports; failed > 0 {
		st.results.FailedImports = failed
	}
	st.results.FailedGroups = st.failedGroups

	message := fmt.Sprintf("Import completed: %d of %d rows imported",
		st.results.SuccessfulImports, st.results.TotalRecords)
	if transformer.ForeignCurrencySeen() {
		logger.Warn("non-USD currency symbols seen in monetary columns")
		message += " (non-USD currency symbols detected; amounts parsed as plain numbers)"
	}

	s.recordHistory(ctx, job, models.JobStatusCompleted, &st.results, started)
	s.publishCompletion(ctx, job, models.JobStatusCompleted, &st.results)
	s.files.Cleanup(ctx, job)

	if err := tracker.Complete(ctx, &st.results, message); err != nil {
		logger.Error("could not mark job completed", zap.Error(err))
	}
	logger.Info("import finished",
		zap.Int("total", st.results.TotalRecords),
		zap.Int("successful", st.results.SuccessfulImports),
		zap.Int("failed", st.results.FailedImports),
		zap.Int("suppliers_added", st.results.SuppliersAdded),
		zap.Int("matched", st.results.MatchStats.TotalMatched),
		zap.Int("row_skips", st.rowSkips),
		zap.Int("duplicates", st.duplicates),
		zap.Duration("took", time.Since(started)))
	return nil
}

// processChunk runs one chunk through transform, match and persist. Chunk
// failures are recorded on the run state; they never abort the stream.
func (s *ImportService) processChunk(ctx context.Context, st *runState, rows []Row) {
	outcomes := st.pool.Run(ctx, rows)
	if st.job.Type == models.JobTypeSupplier {
		s.processSupplierChunk(ctx, st, rows, outcomes)
		return
	}
	s.processProductChunk(ctx, st, rows, outcomes)
}

func (s *ImportService) processProductChunk(ctx context.Context, st *runState, rows []Row, outcomes []TransformOutcome) {
	batch := make([]models.Product, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			st.rowSkips++
			s.logger.Debug("row skipped", zap.Int("line", o.Line), zap.Error(o.Err))
			continue
		}
		p := o.Product
		if !p.PlaceholderEAN {
			if st.seenEANs[p.EAN] {
				st.duplicates++
				continue
			}
			st.seenEANs[p.EAN] = true
		}
		batch = append(batch, *p)
	}
	if len(batch) == 0 {
		return
	}

	report := st.writer.WriteProducts(ctx, batch)
	st.results.SuccessfulImports += report.Written
	if report.Err != nil {
		st.noteFailedGroup(rows, report.Failed, report.Err)
		st.throttle.NoteFailure()
		return
	}
	st.throttle.NoteSuccess()
}

func (s *ImportService) processSupplierChunk(ctx context.Context, st *runState, rows []Row, outcomes []TransformOutcome) {
	// Group the chunk's offers per supplier, keeping first-seen order.
	groups := map[string][]models.SupplierOffer{}
	var order []string
	for _, o := range outcomes {
		if o.Err != nil {
			st.rowSkips++
			s.logger.Debug("row skipped", zap.Int("line", o.Line), zap.Error(o.Err))
			continue
		}
		name := o.Supplier.SupplierName
		if len(groups[name]) == 0 {
			order = append(order, name)
		}
		groups[name] = append(groups[name], o.Supplier.Offer)
	}
	if len(order) == 0 {
		return
	}

	candidates, err := s.prefetchCandidates(ctx, groups, st.priority)
	if err != nil {
		total := 0
		for _, offers := range groups {
			total += len(offers)
		}
		s.logger.Error("candidate prefetch failed, chunk skipped",
			zap.Int("offers", total), zap.Error(err))
		st.noteFailedGroup(rows, total, err)
		st.throttle.NoteFailure()
		return
	}
	matcher := NewMatcher(candidates, st.priority)

	chunkFailed := false
	for _, name := range order {
		offers := groups[name]
		supplier, err := s.supplierFor(ctx, st, name)
		if err != nil {
			s.logger.Error("could not resolve supplier",
				zap.String("supplier", name), zap.Error(err))
			st.noteFailedGroup(rows, len(offers), err)
			chunkFailed = true
			continue
		}

		outcome := matcher.Match(offers, supplier.ID)
		matched := st.dedupeMatched(outcome.Matched)
		unmatched := st.dedupeUnmatched(outcome.Unmatched)
		st.duplicates += len(outcome.Matched) - len(matched) + len(outcome.Unmatched) - len(unmatched)

		for _, offer := range matched {
			st.results.MatchStats.TotalMatched++
			st.results.MatchStats.ByMethod[offer.MatchMethod]++
		}
		if len(matched) > 0 {
			st.matchedSuppliers[supplier.ID] = true
		}

		matchedReport := st.writer.WriteMatchedOffers(ctx, matched)
		unmatchedReport := st.writer.WriteUnmatchedOffers(ctx, supplier.ID, unmatched)
		st.results.SuccessfulImports += matchedReport.Written + unmatchedReport.Written
		if matchedReport.Err != nil {
			st.noteFailedGroup(rows, matchedReport.Failed, matchedReport.Err)
			chunkFailed = true
		}
		if unmatchedReport.Err != nil {
			st.noteFailedGroup(rows, unmatchedReport.Failed, unmatchedReport.Err)
			chunkFailed = true
		}
	}

	if chunkFailed {
		st.throttle.NoteFailure()
		return
	}
	st.throttle.NoteSuccess()
}

// prefetchCandidates bulk-loads every catalog product referenced by the
// chunk's identifiers, one query per identifier batch, bounded by the
// candidate cap. Only identifiers an enabled strategy will use are queried.
func (s *ImportService) prefetchCandidates(ctx context.Context, groups map[string][]models.SupplierOffer, priority []string) ([]models.Product, error) {
	wantEAN, wantMPN, wantName := false, false, false
	for _, method := range priority {
		switch method {
		case models.MatchMethodEAN:
			wantEAN = true
		case models.MatchMethodMPN:
			wantMPN = true
		case models.MatchMethodName:
			wantName = true
		}
	}

	eans := map[string]bool{}
	mpns := map[string]bool{}
	titles := map[string]bool{}
	for _, offers := range groups {
		for _, o := range offers {
			if wantEAN && o.EAN != "" {
				eans[o.EAN] = true
			}
			if wantMPN && o.MPN != "" {
				mpns[o.MPN] = true
			}
			if wantName && o.ProductName != "" {
				titles[o.ProductName] = true
			}
		}
	}

	var candidates []models.Product
	seen := map[string]bool{}
	add := func(products []models.Product) {
		for _, p := range products {
			if !seen[p.ID] {
				seen[p.ID] = true
				candidates = append(candidates, p)
			}
		}
	}

	queries := []struct {
		keys map[string]bool
		find func(context.Context, []string) ([]models.Product, error)
	}{
		{eans, s.products.FindByEANs},
		{mpns, s.products.FindByMPNs},
		{titles, s.products.FindByTitles},
	}
	batchSize := s.cfg.lookupBatch()
	limit := s.cfg.candidateCap()
	for _, q := range queries {
		if len(q.keys) == 0 {
			continue
		}
		keys := sortedKeys(q.keys)
		for lo := 0; lo < len(keys) && len(candidates) < limit; lo += batchSize {
			hi := lo + batchSize
			if hi > len(keys) {
				hi = len(keys)
			}
			found, err := q.find(ctx, keys[lo:hi])
			if err != nil {
				return nil, fmt.Errorf("candidate lookup failed: %w", err)
			}
			add(found)
		}
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// supplierFor resolves a supplier by name through the run-level cache so
// each distinct name costs one datastore round trip per job.
func (s *ImportService) supplierFor(ctx context.Context, st *runState, name string) (*models.Supplier, error) {
	if supplier, ok := st.supplierCache[name]; ok {
		return supplier, nil
	}
	supplier, created, err := s.suppliers.GetOrCreateByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if created {
		st.results.SuppliersAdded++
		s.logger.Info("supplier created", zap.String("supplier", name))
	}
	st.supplierCache[name] = supplier
	return supplier, nil
}

// dedupeMatched drops offers whose (supplier, product) pair already went
// through this run, so one source file cannot write the same mapping twice.
func (st *runState) dedupeMatched(offers []models.SupplierOffer) []models.SupplierOffer {
	kept := offers[:0:0]
	for _, o := range offers {
		key := "m:" + o.SupplierID + ":" + o.ProductID
		if st.seenOfferKeys[key] {
			continue
		}
		st.seenOfferKeys[key] = true
		kept = append(kept, o)
	}
	return kept
}

// dedupeUnmatched works like dedupeMatched but keys on (supplier, EAN),
// the uniqueness constraint unmatched offers are stored under.
func (st *runState) dedupeUnmatched(offers []models.SupplierOffer) []models.SupplierOffer {
	kept := offers[:0:0]
	for _, o := range offers {
		key := "u:" + o.SupplierID + ":" + o.EAN
		if st.seenOfferKeys[key] {
			continue
		}
		st.seenOfferKeys[key] = true
		kept = append(kept, o)
	}
	return kept
}

// finishFailed drives the fatal-error path: terminal status, audit record,
// notification, upload cleanup.
func (s *ImportService) finishFailed(ctx context.Context, tracker *ProgressTracker, job *models.ImportJob, started time.Time, message string) {
	s.logger.Error("import failed",
		zap.String("job_id", job.ID), zap.String("reason", message))
	if err := tracker.Fail(ctx, message); err != nil {
		s.logger.Error("could not mark job failed",
			zap.String("job_id", job.ID), zap.Error(err))
	}
	s.recordHistory(ctx, job, models.JobStatusFailed, nil, started)
	s.publishCompletion(ctx, job, models.JobStatusFailed, nil)
	s.files.Cleanup(ctx, job)
}

func (s *ImportService) recordHistory(ctx context.Context, job *models.ImportJob, status models.JobStatus, results *models.ImportResults, started time.Time) {
	record := &models.ImportHistoryRecord{
		JobID:          job.ID,
		Type:           job.Type,
		FileName:       job.FileName,
		Status:         status,
		DurationMillis: time.Since(started).Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}
	if results != nil {
		record.TotalRecords = results.TotalRecords
		record.SuccessfulImports = results.SuccessfulImports
		record.FailedImports = results.FailedImports
	}
	if err := s.history.Put(ctx, record); err != nil {
		s.logger.Warn("could not write import history",
			zap.String("job_id", job.ID), zap.Error(err))
	}
}

// completionNotice is the payload published to the completion topic.
type completionNotice struct {
	JobID    string                `json:"job_id"`
	Type     models.JobType        `json:"type"`
	Status   models.JobStatus      `json:"status"`
	FileName string                `json:"file_name"`
	Results  *models.ImportResults `json:"results,omitempty"`
}

func (s *ImportService) publishCompletion(ctx context.Context, job *models.ImportJob, status models.JobStatus, results *models.ImportResults) {
	if s.publisher == nil || s.cfg.CompletionTopic == "" {
		return
	}
	payload, err := json.Marshal(completionNotice{
		JobID:    job.ID,
		Type:     job.Type,
		Status:   status,
		FileName: job.FileName,
		Results:  results,
	})
	if err != nil {
		s.logger.Warn("could not encode completion notice", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.cfg.CompletionTopic, payload); err != nil {
		s.logger.Warn("could not publish completion notice",
			zap.String("job_id", job.ID), zap.Error(err))
	}
}

// matchPriority resolves the job's strategy order, falling back to every
// strategy in default order.
func matchPriority(job *models.ImportJob) []string {
	if job.MatchOptions != nil {
		return job.MatchOptions.EnabledPriority()
	}
	return models.DefaultMatchOptions().EnabledPriority()
}

// missingRequiredColumns lists required fields the mapping does not cover.
// A file that cannot satisfy them fails before any row is read.
func missingRequiredColumns(jobType models.JobType, mapping map[string]string) []string {
	var missing []string
	for _, f := range FieldsForType(jobType) {
		if f.Required && mapping[f.Name] == "" {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// rowRequiredFields lists the fields whose absence skips a row. The primary
// identifier is excluded: a blank EAN gets a placeholder, not a skip.
func rowRequiredFields(jobType models.JobType) []string {
	var required []string
	for _, f := range FieldsForType(jobType) {
		if f.Required && f.Name != "ean" {
			required = append(required, f.Name)
		}
	}
	return required
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateError(err error, max int) string {
	msg := err.Error()
	if len(msg) > max {
		return msg[:max] + "..."
	}
	return msg
}
