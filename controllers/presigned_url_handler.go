package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/EhsanMalik360/productsmappingapp-sub002/pkg/aws"
)

// PresignedURLHandler hands out direct-to-bucket upload URLs so browsers
// can push very large files to S3 without passing through this service.
// Objects land under the type prefix, where the queue intake picks them up
// and creates the import job.
type PresignedURLHandler struct {
	cfg       sdkaws.Config
	bucket    string
	validator *RequestValidator
	timeout   time.Duration
}

func NewPresignedURLHandler(cfg sdkaws.Config, bucket string, validator *RequestValidator) *PresignedURLHandler {
	return &PresignedURLHandler{
		cfg:       cfg,
		bucket:    bucket,
		validator: validator,
		timeout:   DefaultContextTimeout,
	}
}

// PostPresignUpload returns a presigned PUT URL for one upload
func (h *PresignedURLHandler) PostPresignUpload(c *gin.Context) {
	if h.bucket == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Object storage uploads are not configured"})
		return
	}

	req, err := h.validator.ParsePresignRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	key := fmt.Sprintf("%s/%s_%s", req.Type, uuid.New().String(), sanitizeFileName(req.FileName))
	url, headers, err := aws_pkg.GeneratePresignedPutURL(ctx, h.cfg, h.bucket, key, req.Expires)
	if err != nil {
		zap.L().Error("Failed to generate presigned upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate presigned upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_url": url,
		"method":     "PUT",
		"key":        key,
		"headers":    headers,
		"expires_in": req.Expires,
	})
}
