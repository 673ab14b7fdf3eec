package app

import (
	"os"
	"strconv"
	"time"

	"go-attendance/internal/attendance"
	"go-attendance/internal/geofence"
	"go-attendance/internal/middleware"
	"go-attendance/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func BuildApp(router *gin.Engine) error {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	logger.Info("redis connection established")

	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	return registerModules(router, sqlDB, gormDB, redisClient, attendanceConfigFromEnv())
}

// attendanceConfigFromEnv reads the geofence and lateness settings. Missing
// coordinates disable the geofence rather than failing startup.
func attendanceConfigFromEnv() attendance.Config {
	cfg := attendance.Config{
		Office: geofence.Office{
			RadiusMeters: 200,
		},
		CutoffHour: 9,
		Location:   time.Local,
	}

	if lat, err := strconv.ParseFloat(os.Getenv("OFFICE_LATITUDE"), 64); err == nil {
		if lng, err := strconv.ParseFloat(os.Getenv("OFFICE_LONGITUDE"), 64); err == nil {
			cfg.Office.Latitude = &lat
			cfg.Office.Longitude = &lng
		}
	}
	if radius, err := strconv.ParseFloat(os.Getenv("GEOFENCE_RADIUS_METERS"), 64); err == nil && radius > 0 {
		cfg.Office.RadiusMeters = radius
	}
	if cutoff, err := strconv.Atoi(os.Getenv("ATTENDANCE_CUTOFF_HOUR")); err == nil && cutoff >= 0 && cutoff < 24 {
		cfg.CutoffHour = cutoff
	}
	if tz := os.Getenv("ATTENDANCE_TIMEZONE"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Location = loc
		}
	}

	return cfg
}
