package approval

import (
	"go-expensio/internal/middleware"
	"go-expensio/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	expenses := r.Group("/expenses")
	expenses.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		expenses.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "expense", "decide"), h.Approve)
		expenses.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "expense", "decide"), h.Reject)
		expenses.GET("/:id/progress", middleware.RBACAuthorize(rbacService, "expense", "read"), h.Progress)
	}

	approvals := r.Group("/approvals")
	approvals.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		approvals.GET("/pending", middleware.RBACAuthorize(rbacService, "expense", "decide"), h.Pending)
	}
}
