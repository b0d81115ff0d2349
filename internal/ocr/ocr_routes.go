package ocr

import (
	"go-expensio/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	receipts := r.Group("/receipts")
	receipts.Use(middleware.AuthMiddleware())
	{
		receipts.POST("/scan", middleware.RateLimitByUser(2, 5), h.Scan)
	}
}
