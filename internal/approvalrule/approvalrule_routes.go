package approvalrule

import (
	"go-expensio/internal/middleware"
	"go-expensio/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	rules := r.Group("/approval-rules")
	rules.Use(middleware.AuthMiddleware())
	{
		rules.GET("", middleware.RBACAuthorize(rbacService, "approval_rule", "read"), h.Get)
		rules.PUT("", middleware.RBACAuthorize(rbacService, "approval_rule", "write"), h.Save)
	}
}
