package expense

import (
	"go-expensio/internal/middleware"
	"go-expensio/internal/rbac"
	"go-expensio/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, rdb *redis.Client) {
	expenses := r.Group("/expenses")
	expenses.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		expenses.POST("",
			middleware.RBACAuthorize(rbacService, "expense", "create"),
			middleware.Idempotency(rdb),
			h.Submit,
		)
		expenses.GET("/mine", middleware.RBACAuthorize(rbacService, "expense", "read"), h.GetMine)
		expenses.GET("", middleware.RBACAuthorize(rbacService, "expense", "read_all"), h.GetAll)
		expenses.GET("/:id", middleware.RBACAuthorize(rbacService, "expense", "read"), h.GetByID)
		expenses.POST("/:id/override",
			middleware.RBACAuthorize(rbacService, "expense", "override"),
			middleware.RoleMiddleware(user.RoleAdmin),
			h.Override,
		)
	}
}
