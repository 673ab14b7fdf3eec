package report

import (
	"go-attendance/internal/middleware"
	"go-attendance/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rbacService rbac.Service) {
	reports := r.Group("/reports")
	reports.Use(middleware.AuthMiddleware())
	{
		reports.GET("/daily", middleware.RBACAuthorize(rbacService, "report", "read"), h.CompanyDailySummary)
		reports.GET("/monthly", middleware.RBACAuthorize(rbacService, "report", "read"), h.EmployeeMonthlyReport)
	}
}
