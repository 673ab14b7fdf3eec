package leave

import (
	"go-attendance/internal/middleware"
	"go-attendance/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service, rdb ...*redis.Client) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		apply := []gin.HandlerFunc{middleware.RBACAuthorize(rbacService, "leave", "create")}
		if redisClient != nil {
			apply = append(apply, middleware.Idempotency(redisClient))
		}
		apply = append(apply, h.Apply)

		leaves.POST("", apply...)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), h.ListMine)
		leaves.GET("/all", middleware.RBACAuthorize(rbacService, "leave", "manage"), h.ListAll)
		leaves.GET("/balance", middleware.RBACAuthorize(rbacService, "leave", "read"), h.Balance)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), h.GetByID)
		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "manage"), h.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "manage"), h.Reject)
	}
}
