package report

import (
	"go-attendance/internal/attendance"
	"go-attendance/internal/employee"
	"go-attendance/internal/leave"
)

type DailyEntry struct {
	EmployeeID     string   `json:"employee_id"`
	EmployeeNumber string   `json:"employee_number"`
	FullName       string   `json:"full_name"`
	Status         string   `json:"status"`
	ClockIn        *string  `json:"clock_in,omitempty"`
	ClockOut       *string  `json:"clock_out,omitempty"`
	WorkingHours   *float64 `json:"working_hours,omitempty"`
}

type CompanyDailySummaryResponse struct {
	Date           string       `json:"date"`
	TotalEmployees int          `json:"total_employees"`
	PresentCount   int          `json:"present_count"`
	LateCount      int          `json:"late_count"`
	HalfDayCount   int          `json:"half_day_count"`
	AbsentCount    int          `json:"absent_count"`
	Entries        []DailyEntry `json:"entries"`
}

type EmployeeMonthlyReportResponse struct {
	Employee     employee.EmployeeResponse         `json:"employee"`
	Month        int                               `json:"month"`
	Year         int                               `json:"year"`
	Attendance   attendance.MonthlySummaryResponse `json:"attendance"`
	LeaveBalance leave.BalanceResponse             `json:"leave_balance"`
}
