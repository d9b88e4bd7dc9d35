package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/EhsanMalik360/productsmappingapp-sub002/common/errors"
	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// Validation constants
const (
	MaxUploadSize   = 500 * 1024 * 1024 // 500MB
	MaxHistoryLimit = 100
)

// Allowed file types
var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
	".xls":  true,
}

var allowedImportContentTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	"text/plain":      true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// UploadOptions are the optional knobs accepted with an upload.
type UploadOptions struct {
	FieldMapping map[string]string
	MatchOptions *models.MatchOptions
	BatchSize    int
}

// uploadForm is the multipart form shape next to the file part
type uploadForm struct {
	FieldMapping string `form:"field_mapping"`
	MatchOptions string `form:"match_options"`
	BatchSize    int    `form:"batch_size" validate:"omitempty,gte=1,lte=5000"`
}

// PresignRequest asks for a direct-to-bucket upload URL
type PresignRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type"`
	Type        string `json:"type" validate:"required,oneof=product supplier"`
	Expires     int64  `json:"expires" validate:"omitempty,gt=0,lte=3600"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// IsValidImportFile checks if the upload looks like a delimited data file
func (rv *RequestValidator) IsValidImportFile(file *multipart.FileHeader) bool {
	if allowedImportContentTypes[file.Header.Get("Content-Type")] {
		return true
	}

	// Fallback: check by extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return allowedImportExtensions[ext]
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return apperrors.ErrFileTooLarge
	}
	return nil
}

// ParseUploadOptions reads the optional form fields next to the file part.
// field_mapping and match_options arrive as JSON strings.
func (rv *RequestValidator) ParseUploadOptions(c *gin.Context) (*UploadOptions, error) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, fmt.Errorf("invalid form data: %w", err)
	}
	if err := rv.validate.Struct(&form); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	opts := &UploadOptions{BatchSize: form.BatchSize}

	if mapping := strings.TrimSpace(form.FieldMapping); mapping != "" {
		parsed := map[string]string{}
		if err := json.Unmarshal([]byte(mapping), &parsed); err != nil {
			return nil, errors.New("invalid field_mapping, must be a JSON object of target field to source column")
		}
		opts.FieldMapping = parsed
	}

	if raw := strings.TrimSpace(form.MatchOptions); raw != "" {
		var parsed models.MatchOptions
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, errors.New("invalid match_options, must be a JSON object")
		}
		opts.MatchOptions = &parsed
	}

	return opts, nil
}

// ParsePresignRequest validates a presigned-upload request body
func (rv *RequestValidator) ParsePresignRequest(c *gin.Context) (*PresignRequest, error) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if err := rv.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.ContentType == "" {
		req.ContentType = "text/csv"
	}
	if req.Expires == 0 {
		req.Expires = 900
	}
	return &req, nil
}

// ParseImportType reads the type query parameter
func (rv *RequestValidator) ParseImportType(c *gin.Context) (models.JobType, error) {
	raw := strings.TrimSpace(c.Query("type"))
	switch models.JobType(raw) {
	case models.JobTypeProduct:
		return models.JobTypeProduct, nil
	case models.JobTypeSupplier:
		return models.JobTypeSupplier, nil
	}
	return "", errors.New("type must be 'product' or 'supplier'")
}

// ParseHistoryLimit reads the limit query parameter with a sane default
func (rv *RequestValidator) ParseHistoryLimit(c *gin.Context) (int32, error) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		return 0, errors.New("invalid limit value")
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return int32(limit), nil
}
