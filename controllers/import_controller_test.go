package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/EhsanMalik360/productsmappingapp-sub002/common/errors"
	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

type fakeImportService struct {
	submitCalled int
	lastSubmit   services.SubmitImportRequest
	submitFn     func(ctx context.Context, req services.SubmitImportRequest) (*models.ImportJob, error)
	statusFn     func(ctx context.Context, jobID string) (*services.ImportStatus, error)
	cancelFn     func(ctx context.Context, jobID string) (*models.ImportJob, error)
}

func (f *fakeImportService) SubmitImport(ctx context.Context, req services.SubmitImportRequest) (*models.ImportJob, error) {
	f.submitCalled++
	f.lastSubmit = req
	if f.submitFn != nil {
		return f.submitFn(ctx, req)
	}
	return &models.ImportJob{
		ID:       "job-1",
		FileName: req.FileName,
		FileSize: req.FileSize,
		Type:     req.Type,
		Status:   models.JobStatusPending,
	}, nil
}

func (f *fakeImportService) JobStatus(ctx context.Context, jobID string) (*services.ImportStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx, jobID)
	}
	return &services.ImportStatus{ID: jobID, Status: models.JobStatusProcessing}, nil
}

func (f *fakeImportService) CancelImport(ctx context.Context, jobID string) (*models.ImportJob, error) {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, jobID)
	}
	return &models.ImportJob{ID: jobID, Status: models.JobStatusFailed}, nil
}

type fakeHistoryRepo struct {
	records    []models.ImportHistoryRecord
	lastType   models.JobType
	lastLimit  int32
	listCalled int
}

func (f *fakeHistoryRepo) Put(ctx context.Context, record *models.ImportHistoryRecord) error {
	return nil
}

func (f *fakeHistoryRepo) ListByJob(ctx context.Context, jobID string) ([]models.ImportHistoryRecord, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) ListRecent(ctx context.Context, importType models.JobType, limit int32) ([]models.ImportHistoryRecord, error) {
	f.listCalled++
	f.lastType = importType
	f.lastLimit = limit
	return f.records, nil
}

func newImportTestRouter(t *testing.T, svc *fakeImportService, history *fakeHistoryRepo) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	controller := NewImportController(svc, history, NewRequestValidator(), uploadDir)

	router := gin.New()
	router.POST("/api/upload/supplier", controller.UploadSupplierFile)
	router.POST("/api/upload/product", controller.UploadProductFile)
	router.GET("/api/imports/:id/status", controller.GetImportStatus)
	router.POST("/api/imports/:id/cancel", controller.CancelImport)
	router.GET("/api/imports/history", controller.GetImportHistory)
	return router, uploadDir
}

func multipartUpload(t *testing.T, fileName, contents string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadSupplierFileQueuesJob(t *testing.T) {
	svc := &fakeImportService{}
	router, uploadDir := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	body, contentType := multipartUpload(t, "offers list.csv", "Supplier Name,EAN\nAcme,123\n", map[string]string{
		"field_mapping": `{"ean":"EAN"}`,
		"match_options": `{"useEan":true,"useMpn":false,"useName":false,"priority":["ean"]}`,
		"batch_size":    "250",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload/supplier", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	if svc.submitCalled != 1 {
		t.Fatalf("expected submit to be called once, got %d", svc.submitCalled)
	}

	submitted := svc.lastSubmit
	if submitted.Type != models.JobTypeSupplier {
		t.Fatalf("expected supplier job, got %q", submitted.Type)
	}
	if submitted.FileName != "offers list.csv" {
		t.Fatalf("unexpected file name %q", submitted.FileName)
	}
	if submitted.FieldMapping["ean"] != "EAN" {
		t.Fatalf("expected field mapping to be parsed, got %v", submitted.FieldMapping)
	}
	if submitted.MatchOptions == nil || !submitted.MatchOptions.UseEAN || submitted.MatchOptions.UseMPN {
		t.Fatalf("expected match options to be parsed, got %+v", submitted.MatchOptions)
	}
	if submitted.BatchSize != 250 {
		t.Fatalf("expected batch size 250, got %d", submitted.BatchSize)
	}

	if !strings.HasSuffix(submitted.FilePath, "_offers_list.csv") {
		t.Fatalf("expected sanitized stored name, got %q", submitted.FilePath)
	}
	stored, err := os.ReadFile(filepath.Join(uploadDir, submitted.FilePath))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if !strings.HasPrefix(string(stored), "Supplier Name") {
		t.Fatalf("stored file has wrong contents: %q", stored)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["job_id"] != "job-1" || resp["id"] != "job-1" {
		t.Fatalf("expected job id in response, got %v", resp)
	}
}

func TestUploadRejectsWrongFileType(t *testing.T) {
	svc := &fakeImportService{}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	body, contentType := multipartUpload(t, "photo.png", "not a data file", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/product", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if svc.submitCalled != 0 {
		t.Fatalf("expected submit not to be called, got %d", svc.submitCalled)
	}
}

func TestUploadRejectsBadFieldMapping(t *testing.T) {
	svc := &fakeImportService{}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	body, contentType := multipartUpload(t, "catalog.csv", "Title,EAN\n", map[string]string{
		"field_mapping": `["not","an","object"]`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload/product", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if svc.submitCalled != 0 {
		t.Fatalf("expected submit not to be called, got %d", svc.submitCalled)
	}
}

func TestGetImportStatusReturnsSnapshot(t *testing.T) {
	svc := &fakeImportService{
		statusFn: func(ctx context.Context, jobID string) (*services.ImportStatus, error) {
			return &services.ImportStatus{
				ID:       jobID,
				Status:   models.JobStatusCompleted,
				Progress: 100,
			}, nil
		},
	}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/job-9/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["status"] != "completed" || resp["progress"] != float64(100) {
		t.Fatalf("unexpected snapshot: %v", resp)
	}
}

func TestGetImportStatusTimeoutReportsProcessing(t *testing.T) {
	svc := &fakeImportService{
		statusFn: func(ctx context.Context, jobID string) (*services.ImportStatus, error) {
			return nil, fmt.Errorf("failed to load job %s: %w", jobID, context.DeadlineExceeded)
		},
	}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/job-9/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["status"] != "processing" {
		t.Fatalf("expected synthetic processing status, got %v", resp)
	}
}

func TestGetImportStatusNotFound(t *testing.T) {
	svc := &fakeImportService{
		statusFn: func(ctx context.Context, jobID string) (*services.ImportStatus, error) {
			return nil, apperrors.ErrJobNotFound
		},
	}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/gone/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestCancelImport(t *testing.T) {
	svc := &fakeImportService{}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/imports/job-3/cancel", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestCancelImportAlreadyFinished(t *testing.T) {
	svc := &fakeImportService{
		cancelFn: func(ctx context.Context, jobID string) (*models.ImportJob, error) {
			return nil, apperrors.ErrJobNotCancelable
		},
	}
	router, _ := newImportTestRouter(t, svc, &fakeHistoryRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/imports/job-3/cancel", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetImportHistory(t *testing.T) {
	history := &fakeHistoryRepo{
		records: []models.ImportHistoryRecord{
			{JobID: "job-1", Type: models.JobTypeSupplier},
			{JobID: "job-2", Type: models.JobTypeSupplier},
		},
	}
	router, _ := newImportTestRouter(t, &fakeImportService{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/imports/history?type=supplier&limit=5", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if history.listCalled != 1 || history.lastType != models.JobTypeSupplier || history.lastLimit != 5 {
		t.Fatalf("unexpected history query: called=%d type=%q limit=%d", history.listCalled, history.lastType, history.lastLimit)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", resp["count"])
	}
}

func TestGetImportHistoryRequiresType(t *testing.T) {
	history := &fakeHistoryRepo{}
	router, _ := newImportTestRouter(t, &fakeImportService{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/imports/history", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
	if history.listCalled != 0 {
		t.Fatalf("expected history not to be queried, got %d", history.listCalled)
	}
}
