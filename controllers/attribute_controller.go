package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EhsanMalik360/productsmappingapp-sub002/services"
)

// AttributeController serves custom attribute definitions. Definitions are
// managed outside this service; imports only read them.
type AttributeController struct {
	cache     *services.AttributeCache
	validator *RequestValidator
	timeout   time.Duration
}

func NewAttributeController(cache *services.AttributeCache, validator *RequestValidator) *AttributeController {
	return &AttributeController{
		cache:     cache,
		validator: validator,
		timeout:   DefaultContextTimeout,
	}
}

// ListAttributes returns the definitions for one entity type
func (h *AttributeController) ListAttributes(c *gin.Context) {
	entityType, err := h.validator.ParseImportType(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	defs, err := h.cache.Definitions(ctx, entityType)
	if err != nil {
		zap.L().Error("Failed to load attribute definitions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attribute definitions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attributes": defs,
		"count":      len(defs),
	})
}

// RefreshAttributes drops the cached definitions for one entity type so
// the next import sees edits immediately instead of after the TTL.
func (h *AttributeController) RefreshAttributes(c *gin.Context) {
	entityType, err := h.validator.ParseImportType(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.cache.Invalidate(ctx, entityType); err != nil {
		zap.L().Error("Failed to invalidate attribute cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh attribute cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
