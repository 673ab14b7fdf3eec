package attendance

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

	attendances := r.Group("/attendances")
	attendances.Use(middleware.AuthMiddleware())
	{
		clockIn := []gin.HandlerFunc{middleware.RBACAuthorize(rbacService, "attendance", "create")}
		if redisClient != nil {
			clockIn = append(clockIn, middleware.Idempotency(redisClient))
		}
		clockIn = append(clockIn, h.ClockIn)

		attendances.POST("/clock-in", clockIn...)
		attendances.POST("/clock-out", middleware.RBACAuthorize(rbacService, "attendance", "create"), h.ClockOut)
		attendances.GET("/daily", middleware.RBACAuthorize(rbacService, "attendance", "read"), h.DailySummary)
		attendances.GET("/summary", middleware.RBACAuthorize(rbacService, "attendance", "read"), h.MonthlySummary)
		attendances.POST("/mark", middleware.RBACAuthorize(rbacService, "attendance", "manage"), h.MarkAttendance)
	}
}
