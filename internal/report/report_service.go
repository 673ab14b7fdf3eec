package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-attendance/internal/attendance"
	"go-attendance/internal/employee"
	"go-attendance/internal/leave"
	reporterrors "go-attendance/internal/report/errors"
	"go-attendance/internal/shared/calendar"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const monthlyReportTTL = 15 * time.Minute

func GetMonthlyReportKey(companyID, employeeID string, month, year int) string {
	return fmt.Sprintf("reports:monthly:%s:%s:%04d-%02d", companyID, employeeID, year, month)
}

// MonthlyReportKeyPattern matches every cached month for one employee. The
// leave event consumer deletes by this pattern since an approval can touch
// any month the request spans.
func MonthlyReportKeyPattern(companyID, employeeID string) string {
	return fmt.Sprintf("reports:monthly:%s:%s:*", companyID, employeeID)
}

type Service interface {
	CompanyDailySummary(ctx context.Context, companyID, date string) (CompanyDailySummaryResponse, error)
	EmployeeMonthlyReport(ctx context.Context, companyID, employeeID string, month, year int) (EmployeeMonthlyReportResponse, error)
}

type service struct {
	employees      employee.Service
	attendanceRepo attendance.Repository
	attendanceSvc  attendance.Service
	leaveSvc       leave.Service
	rdb            *redis.Client
	sf             *singleflight.Group
	logger         *zap.Logger
}

func NewService(
	employees employee.Service,
	attendanceRepo attendance.Repository,
	attendanceSvc attendance.Service,
	leaveSvc leave.Service,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("report.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("report.service")
	}
	return &service{
		employees:      employees,
		attendanceRepo: attendanceRepo,
		attendanceSvc:  attendanceSvc,
		leaveSvc:       leaveSvc,
		rdb:            rdb,
		sf:             &singleflight.Group{},
		logger:         l,
	}
}

func (s *service) CompanyDailySummary(ctx context.Context, companyID, date string) (CompanyDailySummaryResponse, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return CompanyDailySummaryResponse{}, reporterrors.ErrInvalidDateFormat
	}

	roster, err := s.employees.ActiveRoster(ctx, companyID)
	if err != nil {
		s.logger.Error("daily summary roster lookup failed", zap.Error(err))
		return CompanyDailySummaryResponse{}, err
	}

	rows, err := s.attendanceRepo.FindAllByCompanyAndDate(ctx, companyID, calendar.DayStart(day))
	if err != nil {
		s.logger.Error("daily summary attendance lookup failed", zap.Error(err))
		return CompanyDailySummaryResponse{}, err
	}

	byEmployee := make(map[string]attendance.Attendance, len(rows))
	for _, row := range rows {
		byEmployee[row.EmployeeID.String()] = row
	}

	resp := CompanyDailySummaryResponse{
		Date:           day.Format("2006-01-02"),
		TotalEmployees: len(roster),
		Entries:        make([]DailyEntry, 0, len(roster)),
	}

	for _, member := range roster {
		entry := DailyEntry{
			EmployeeID:     member.ID,
			EmployeeNumber: member.EmployeeNumber,
			FullName:       member.FullName,
			// No row means the employee never clocked in that day.
			Status: attendance.StatusAbsent,
		}
		if row, ok := byEmployee[member.ID]; ok {
			entry.Status = row.Status
			entry.WorkingHours = row.WorkingHours
			if row.ClockIn != nil {
				v := row.ClockIn.Format(time.RFC3339)
				entry.ClockIn = &v
			}
			if row.ClockOut != nil {
				v := row.ClockOut.Format(time.RFC3339)
				entry.ClockOut = &v
			}
		}

		switch entry.Status {
		case attendance.StatusPresent:
			resp.PresentCount++
		case attendance.StatusLate:
			resp.LateCount++
		case attendance.StatusHalfDay:
			resp.HalfDayCount++
		default:
			resp.AbsentCount++
		}
		resp.Entries = append(resp.Entries, entry)
	}

	return resp, nil
}

func (s *service) EmployeeMonthlyReport(ctx context.Context, companyID, employeeID string, month, year int) (EmployeeMonthlyReportResponse, error) {
	if month < 1 || month > 12 {
		return EmployeeMonthlyReportResponse{}, reporterrors.ErrInvalidMonth
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return EmployeeMonthlyReportResponse{}, reporterrors.ErrInvalidEmployeeID
	}

	cacheKey := GetMonthlyReportKey(companyID, employeeID, month, year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp EmployeeMonthlyReportResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		resp, err := s.buildMonthlyReport(ctx, companyID, employeeID, month, year)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, string(jsonData), monthlyReportTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return EmployeeMonthlyReportResponse{}, err
	}

	return v.(EmployeeMonthlyReportResponse), nil
}

func (s *service) buildMonthlyReport(ctx context.Context, companyID, employeeID string, month, year int) (EmployeeMonthlyReportResponse, error) {
	identity, err := s.employees.GetByID(ctx, companyID, employeeID)
	if err != nil {
		s.logger.Warn("monthly report identity lookup failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return EmployeeMonthlyReportResponse{}, err
	}

	att, err := s.attendanceSvc.MonthlySummary(ctx, companyID, employeeID, month, year)
	if err != nil {
		s.logger.Error("monthly report attendance summary failed", zap.Error(err))
		return EmployeeMonthlyReportResponse{}, err
	}

	balance, err := s.leaveSvc.Balance(ctx, companyID, employeeID, year)
	if err != nil {
		s.logger.Error("monthly report leave balance failed", zap.Error(err))
		return EmployeeMonthlyReportResponse{}, err
	}

	return EmployeeMonthlyReportResponse{
		Employee:     identity,
		Month:        month,
		Year:         year,
		Attendance:   att,
		LeaveBalance: balance,
	}, nil
}

// InvalidateMonthlyReports drops every cached month for one employee.
func InvalidateMonthlyReports(ctx context.Context, rdb *redis.Client, companyID, employeeID string, logger *zap.Logger) error {
	if rdb == nil {
		return nil
	}

	pattern := MonthlyReportKeyPattern(companyID, employeeID)
	iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			if logger != nil {
				logger.Error("report cache invalidation failed",
					zap.String("key", iter.Val()),
					zap.Error(err),
				)
			}
			return err
		}
	}
	return iter.Err()
}
