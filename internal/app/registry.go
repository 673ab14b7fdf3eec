package app

import (
	"database/sql"

	"go-attendance/internal/attendance"
	"go-attendance/internal/employee"
	"go-attendance/internal/leave"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/rbac"
	"go-attendance/internal/rbac/infra"
	"go-attendance/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	attendanceCfg attendance.Config,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	attendanceService := attendance.NewServiceWithOutbox(db, attendanceRepo, outboxRepo, attendanceCfg)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, outboxRepo, leave.DefaultPolicy())
	employeeService := employee.NewService(employeeRepo, rdb)
	reportService := report.NewService(employeeService, attendanceRepo, attendanceService, leaveService, rdb)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService)
	leaveHandler := leave.NewHandler(leaveService)
	employeeHandler := employee.NewHandler(employeeService)
	reportHandler := report.NewHandler(reportService)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		attendance.RegisterRoutes(api, attendanceHandler, rbacService, rdb)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		report.RegisterRoutes(api, reportHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler)
	}

	return nil
}
