package attendance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-attendance/internal/attendance"
	attendanceerrors "go-attendance/internal/attendance/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	clockInFn        func(ctx context.Context, companyID, employeeID string, req attendance.ClockInRequest) (attendance.AttendanceResponse, error)
	clockOutFn       func(ctx context.Context, companyID, employeeID string, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error)
	dailySummaryFn   func(ctx context.Context, companyID, employeeID, date string) (attendance.AttendanceResponse, error)
	monthlySummaryFn func(ctx context.Context, companyID, employeeID string, month, year int) (attendance.MonthlySummaryResponse, error)
	markAttendanceFn func(ctx context.Context, companyID string, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error)
}

func (f *fakeService) ClockIn(ctx context.Context, companyID, employeeID string, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	return f.clockInFn(ctx, companyID, employeeID, req)
}

func (f *fakeService) ClockOut(ctx context.Context, companyID, employeeID string, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	return f.clockOutFn(ctx, companyID, employeeID, req)
}

func (f *fakeService) DailySummary(ctx context.Context, companyID, employeeID, date string) (attendance.AttendanceResponse, error) {
	return f.dailySummaryFn(ctx, companyID, employeeID, date)
}

func (f *fakeService) MonthlySummary(ctx context.Context, companyID, employeeID string, month, year int) (attendance.MonthlySummaryResponse, error) {
	return f.monthlySummaryFn(ctx, companyID, employeeID, month, year)
}

func (f *fakeService) MarkAttendance(ctx context.Context, companyID string, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.markAttendanceFn(ctx, companyID, req)
}

func TestHandler_ClockIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	svc := &fakeService{
		clockInFn: func(ctx context.Context, cid, eid string, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, employeeID, eid)
			assert.NotNil(t, req.Latitude)
			return attendance.AttendanceResponse{ID: uuid.New().String(), EmployeeID: eid, Status: attendance.StatusPresent}, nil
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("employee_id", employeeID)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendances/clock-in",
		strings.NewReader(`{"latitude":12.9716,"longitude":77.5946}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ClockIn(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestHandler_ClockIn_GeofenceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		clockInFn: func(ctx context.Context, cid, eid string, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrOutsideGeofence.WithDetails(attendance.GeofenceDetails{
				DistanceMeters: 250.12,
				RadiusMeters:   200,
			})
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/attendances/clock-in",
		strings.NewReader(`{"latitude":1,"longitude":1}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ClockIn(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "GEOFENCE_VIOLATION")
	assert.Contains(t, w.Body.String(), "distance_meters")
}

func TestHandler_ClockOut(t *testing.T) {
	gin.SetMode(gin.TestMode)

	wh := 8.25
	svc := &fakeService{
		clockOutFn: func(ctx context.Context, cid, eid string, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{ID: uuid.New().String(), WorkingHours: &wh}, nil
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/attendances/clock-out", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.ClockOut(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "working_hours")
}

func TestHandler_MonthlySummary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		monthlySummaryFn: func(ctx context.Context, cid, eid string, month, year int) (attendance.MonthlySummaryResponse, error) {
			assert.Equal(t, 12, month)
			assert.Equal(t, 2025, year)
			return attendance.MonthlySummaryResponse{Month: month, Year: year, PresentDays: 18}, nil
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("employee_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodGet, "/attendances/summary?month=12&year=2025", nil)

	h.MonthlySummary(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"present_days":18`)
}

func TestHandler_MarkAttendance_BadStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		markAttendanceFn: func(ctx context.Context, cid string, req attendance.MarkAttendanceRequest) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrInvalidStatus
		},
	}
	h := attendance.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	body := `{"employee_id":"` + uuid.New().String() + `","date":"2025-12-20","status":"SOMETHING"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/attendances/mark", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.MarkAttendance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}
