package company

import (
	"go-expensio/internal/middleware"
	"go-expensio/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	companies := r.Group("/company")
	companies.Use(middleware.AuthMiddleware())
	{
		companies.GET("", h.Get)
		companies.PUT("", middleware.RBACAuthorize(rbacService, "company", "write"), h.Update)
	}
}
