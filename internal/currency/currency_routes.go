package currency

import (
	"go-expensio/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	currencies := r.Group("/currencies")
	currencies.Use(middleware.AuthMiddleware())
	{
		currencies.GET("", h.Common)
		currencies.GET("/rates/:base", middleware.RateLimitByUser(1, 5), h.Rates)
	}
}
