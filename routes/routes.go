package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EhsanMalik360/productsmappingapp-sub002/controllers"
)

// RegisterImportRoutes wires the upload and job-management API.
func RegisterImportRoutes(r *gin.Engine, ic *controllers.ImportController, pc *controllers.PresignedURLHandler) {
	uploadRoutes := r.Group("/api/upload")
	{
		uploadRoutes.POST("/supplier", ic.UploadSupplierFile)
		uploadRoutes.POST("/product", ic.UploadProductFile)
		uploadRoutes.POST("/presign", pc.PostPresignUpload)
	}

	importRoutes := r.Group("/api/imports")
	{
		importRoutes.GET("/history", ic.GetImportHistory)
		importRoutes.GET("/:id/status", ic.GetImportStatus)
		importRoutes.POST("/:id/cancel", ic.CancelImport)
	}
}

// RegisterAttributeRoutes wires the read-only attribute definition API.
func RegisterAttributeRoutes(r *gin.Engine, ac *controllers.AttributeController) {
	attributeRoutes := r.Group("/api/attributes")
	{
		attributeRoutes.GET("", ac.ListAttributes)
		attributeRoutes.POST("/refresh", ac.RefreshAttributes)
	}
}

// RegisterHealthRoute exposes the liveness probe.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
