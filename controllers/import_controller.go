package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/EhsanMalik360/productsmappingapp-sub002/common/errors"
	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
	"github.com/EhsanMalik360/productsmappingapp-sub002/repository"
	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

// ImportController handles file uploads and import job management
type ImportController struct {
	imports   ImportServiceAPI
	history   repository.HistoryRepo
	validator *RequestValidator
	uploadDir string
	timeout   time.Duration
}

func NewImportController(imports ImportServiceAPI, history repository.HistoryRepo, validator *RequestValidator, uploadDir string) *ImportController {
	return &ImportController{
		imports:   imports,
		history:   history,
		validator: validator,
		uploadDir: uploadDir,
		timeout:   DefaultContextTimeout,
	}
}

// UploadSupplierFile accepts a supplier offer file and queues an import
func (h *ImportController) UploadSupplierFile(c *gin.Context) {
	h.handleUpload(c, models.JobTypeSupplier)
}

// UploadProductFile accepts a product catalog file and queues an import
func (h *ImportController) UploadProductFile(c *gin.Context) {
	h.handleUpload(c, models.JobTypeProduct)
}

// GetImportStatus returns the job snapshot for pollers. The store read
// races a short timeout; an in-flight job whose read times out is reported
// as still processing instead of blocking the caller.
func (h *ImportController) GetImportStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), StatusReadTimeout)
	defer cancel()

	status, err := h.imports.JobStatus(ctx, id)
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusOK, gin.H{
			"id":             id,
			"status":         models.JobStatusProcessing,
			"status_message": "Import is still processing",
		})
		return
	}
	if err != nil {
		h.renderError(c, err, "Failed to retrieve job status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// CancelImport stops a pending or in-flight job
func (h *ImportController) CancelImport(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	job, err := h.imports.CancelImport(ctx, id)
	if err != nil {
		h.renderError(c, err, "Failed to cancel import")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Import cancelled",
		"id":      job.ID,
		"status":  job.Status,
	})
}

// GetImportHistory lists recent finished imports of one type
func (h *ImportController) GetImportHistory(c *gin.Context) {
	importType, err := h.validator.ParseImportType(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := h.validator.ParseHistoryLimit(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	records, err := h.history.ListRecent(ctx, importType, limit)
	if err != nil {
		zap.L().Error("Failed to list import history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve import history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"count":   len(records),
	})
}

// Private helper methods

func (h *ImportController) handleUpload(c *gin.Context, jobType models.JobType) {
	file, err := h.getAndValidateFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.validator.ParseUploadOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storedName, err := h.storeUpload(c, file)
	if err != nil {
		zap.L().Error("Failed to store upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	job, err := h.imports.SubmitImport(ctx, services.SubmitImportRequest{
		FileName:     file.Filename,
		FileSize:     file.Size,
		FilePath:     storedName,
		Type:         jobType,
		FieldMapping: opts.FieldMapping,
		MatchOptions: opts.MatchOptions,
		BatchSize:    opts.BatchSize,
	})
	if err != nil {
		os.Remove(filepath.Join(h.uploadDir, storedName))
		zap.L().Error("Failed to queue import", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "File uploaded, import queued for processing",
		"job_id":    job.ID,
		"id":        job.ID,
		"file_name": job.FileName,
		"file_size": job.FileSize,
		"type":      job.Type,
		"status":    job.Status,
	})
}

func (h *ImportController) getAndValidateFile(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required")
	}

	if !h.validator.IsValidImportFile(file) {
		return nil, apperrors.ErrInvalidFile
	}

	if err := h.validator.ValidateFileSize(file); err != nil {
		return nil, err
	}

	return file, nil
}

// storeUpload persists the upload under a collision-proof name and returns
// that name relative to the upload dir.
func (h *ImportController) storeUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeFileName(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, storedName)); err != nil {
		return "", fmt.Errorf("failed to persist file: %w", err)
	}
	return storedName, nil
}

func (h *ImportController) renderError(c *gin.Context, err error, fallback string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	zap.L().Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// sanitizeFileName keeps a conservative charset; client file names can
// carry anything.
func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "upload"
	}
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
