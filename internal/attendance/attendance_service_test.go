package attendance

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	attendanceerrors "go-attendance/internal/attendance/errors"
	"go-attendance/internal/geofence"
	"go-attendance/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRepo struct {
	withTxFn                    func(tx *sql.Tx) Repository
	createFn                    func(ctx context.Context, a *Attendance) error
	findByEmployeeAndDateFn     func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error)
	findAllByEmployeeAndRangeFn func(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]Attendance, error)
	findAllByCompanyAndDateFn   func(ctx context.Context, companyID string, date time.Time) ([]Attendance, error)
	updateFn                    func(ctx context.Context, a *Attendance) error
	upsertFn                    func(ctx context.Context, a *Attendance) error
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRepo) Create(ctx context.Context, a *Attendance) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeRepo) FindByEmployeeAndDate(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
	if f.findByEmployeeAndDateFn != nil {
		return f.findByEmployeeAndDateFn(ctx, companyID, employeeID, date)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAllByEmployeeAndRange(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]Attendance, error) {
	if f.findAllByEmployeeAndRangeFn != nil {
		return f.findAllByEmployeeAndRangeFn(ctx, companyID, employeeID, start, end)
	}
	return nil, nil
}

func (f *fakeRepo) FindAllByCompanyAndDate(ctx context.Context, companyID string, date time.Time) ([]Attendance, error) {
	if f.findAllByCompanyAndDateFn != nil {
		return f.findAllByCompanyAndDateFn(ctx, companyID, date)
	}
	return nil, nil
}

func (f *fakeRepo) Update(ctx context.Context, a *Attendance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, a)
	}
	return nil
}

func (f *fakeRepo) Upsert(ctx context.Context, a *Attendance) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, a)
	}
	return nil
}

func float64Ptr(v float64) *float64 { return &v }

func officeConfig() Config {
	return Config{
		Office: geofence.Office{
			Latitude:     float64Ptr(12.9716),
			Longitude:    float64Ptr(77.5946),
			RadiusMeters: 200,
		},
		Location: time.UTC,
	}
}

func newTestService(t *testing.T, repo Repository, cfg Config, now time.Time) (Service, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	svc := NewService(db, repo, cfg)
	svc.(*service).now = func() time.Time { return now }

	return svc, mock, func() { db.Close() }
}

func atOfficeRequest() ClockInRequest {
	return ClockInRequest{Latitude: float64Ptr(12.9716), Longitude: float64Ptr(77.5946)}
}

func TestService_ClockIn_PresentBeforeCutoff(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	var saved Attendance
	repo := &fakeRepo{
		createFn: func(ctx context.Context, a *Attendance) error { saved = *a; return nil },
	}

	now := time.Date(2025, 12, 20, 8, 59, 59, 0, time.UTC)
	svc, mock, done := newTestService(t, repo, officeConfig(), now)
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockIn(ctx, companyID, employeeID, atOfficeRequest())
	assert.NoError(t, err)
	assert.Equal(t, StatusPresent, resp.Status)
	assert.Equal(t, "2025-12-20", resp.AttendanceDate)
	assert.NotNil(t, saved.ClockIn)
	assert.True(t, saved.WithinRadius)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ClockIn_LateAtExactCutoff(t *testing.T) {
	ctx := context.Background()

	repo := &fakeRepo{}
	now := time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)
	svc, mock, done := newTestService(t, repo, officeConfig(), now)
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockIn(ctx, uuid.New().String(), uuid.New().String(), atOfficeRequest())
	assert.NoError(t, err)
	assert.Equal(t, StatusLate, resp.Status)
}

func TestService_ClockIn_LocationRequired(t *testing.T) {
	svc, _, done := newTestService(t, &fakeRepo{}, officeConfig(), time.Now())
	defer done()

	_, err := svc.ClockIn(context.Background(), uuid.New().String(), uuid.New().String(), ClockInRequest{})
	assert.ErrorIs(t, err, attendanceerrors.ErrLocationRequired)
}

func TestService_ClockIn_OutsideGeofence(t *testing.T) {
	svc, _, done := newTestService(t, &fakeRepo{}, officeConfig(), time.Now())
	defer done()

	// ~250m north of the office, outside the 200m radius.
	req := ClockInRequest{Latitude: float64Ptr(12.973846), Longitude: float64Ptr(77.5946)}
	_, err := svc.ClockIn(context.Background(), uuid.New().String(), uuid.New().String(), req)

	assert.Error(t, err)
	assert.ErrorContains(t, err, "outside the allowed office radius")

	details, ok := errToDetails(err)
	assert.True(t, ok)
	assert.InDelta(t, 250, details.DistanceMeters, 5)
	assert.Equal(t, 200.0, details.RadiusMeters)
}

func TestService_ClockIn_GeofenceDisabledAcceptsAnywhere(t *testing.T) {
	repo := &fakeRepo{}
	svc, mock, done := newTestService(t, repo, Config{Location: time.UTC}, time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC))
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockIn(context.Background(), uuid.New().String(), uuid.New().String(),
		ClockInRequest{Latitude: float64Ptr(-6.2), Longitude: float64Ptr(106.8)})
	assert.NoError(t, err)
	assert.Nil(t, resp.DistanceMeters)
}

func TestService_ClockIn_Duplicate(t *testing.T) {
	clockIn := time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), ClockIn: &clockIn}, nil
		},
	}

	svc, mock, done := newTestService(t, repo, officeConfig(), clockIn.Add(time.Hour))
	defer done()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockIn(context.Background(), uuid.New().String(), uuid.New().String(), atOfficeRequest())
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ClockIn_FillsAdminMarkedRow(t *testing.T) {
	// Admin marked the day beforehand; clocking in must not create a second row.
	marked := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.New(),
		EmployeeID:     uuid.New(),
		AttendanceDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		Status:         StatusAbsent,
	}

	var updated *Attendance
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return marked, nil
		},
		createFn: func(ctx context.Context, a *Attendance) error {
			t.Fatal("create must not be called when a row already exists")
			return nil
		},
		updateFn: func(ctx context.Context, a *Attendance) error { updated = a; return nil },
	}

	now := time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC)
	svc, mock, done := newTestService(t, repo, officeConfig(), now)
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockIn(context.Background(), marked.CompanyID.String(), marked.EmployeeID.String(), atOfficeRequest())
	assert.NoError(t, err)
	assert.Equal(t, StatusPresent, resp.Status)
	assert.NotNil(t, updated)
	assert.NotNil(t, updated.ClockIn)
}

func TestService_ClockOut_ComputesWorkingHours(t *testing.T) {
	clockIn := time.Date(2025, 12, 20, 8, 30, 0, 0, time.UTC)
	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      uuid.New(),
		EmployeeID:     uuid.New(),
		AttendanceDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
		ClockIn:        &clockIn,
		Status:         StatusPresent,
	}

	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return row, nil
		},
	}

	// 8h15m on the clock.
	now := time.Date(2025, 12, 20, 16, 45, 0, 0, time.UTC)
	svc, mock, done := newTestService(t, repo, officeConfig(), now)
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockOut(context.Background(), row.CompanyID.String(), row.EmployeeID.String(), ClockOutRequest{})
	assert.NoError(t, err)
	assert.NotNil(t, resp.ClockOut)
	assert.NotNil(t, resp.WorkingHours)
	assert.Equal(t, 8.25, *resp.WorkingHours)
}

func TestService_ClockOut_NormalizesAbsentStatus(t *testing.T) {
	clockIn := time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC)
	row := &Attendance{
		ID:         uuid.New(),
		CompanyID:  uuid.New(),
		EmployeeID: uuid.New(),
		ClockIn:    &clockIn,
		Status:     StatusAbsent,
	}
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return row, nil
		},
	}

	svc, mock, done := newTestService(t, repo, officeConfig(), clockIn.Add(8*time.Hour))
	defer done()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.ClockOut(context.Background(), row.CompanyID.String(), row.EmployeeID.String(), ClockOutRequest{})
	assert.NoError(t, err)
	assert.Equal(t, StatusPresent, resp.Status)
}

func TestService_ClockOut_WithoutClockIn(t *testing.T) {
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, mock, done := newTestService(t, repo, officeConfig(), time.Now())
	defer done()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockOut(context.Background(), uuid.New().String(), uuid.New().String(), ClockOutRequest{})
	assert.ErrorIs(t, err, attendanceerrors.ErrNoClockIn)
}

func TestService_ClockOut_Duplicate(t *testing.T) {
	clockIn := time.Date(2025, 12, 20, 8, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(9 * time.Hour)
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return &Attendance{ID: uuid.New(), ClockIn: &clockIn, ClockOut: &clockOut}, nil
		},
	}
	svc, mock, done := newTestService(t, repo, officeConfig(), clockOut.Add(time.Minute))
	defer done()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.ClockOut(context.Background(), uuid.New().String(), uuid.New().String(), ClockOutRequest{})
	assert.ErrorIs(t, err, attendanceerrors.ErrAlreadyClockedOut)
}

func TestService_DailySummary_AbsentPlaceholder(t *testing.T) {
	repo := &fakeRepo{
		findByEmployeeAndDateFn: func(ctx context.Context, companyID, employeeID string, date time.Time) (*Attendance, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, _, done := newTestService(t, repo, officeConfig(), time.Now())
	defer done()

	employeeID := uuid.New().String()
	resp, err := svc.DailySummary(context.Background(), uuid.New().String(), employeeID, "2025-12-20")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbsent, resp.Status)
	assert.Equal(t, employeeID, resp.EmployeeID)
	assert.Empty(t, resp.ID)
}

func TestService_MonthlySummary(t *testing.T) {
	wh := 8.0
	rows := []Attendance{
		{Status: StatusPresent, WorkingHours: &wh},
		{Status: StatusPresent, WorkingHours: &wh},
		{Status: StatusLate, WorkingHours: &wh},
		{Status: StatusHalfDay},
	}
	repo := &fakeRepo{
		findAllByEmployeeAndRangeFn: func(ctx context.Context, companyID, employeeID string, start, end time.Time) ([]Attendance, error) {
			assert.Equal(t, "2025-12-01", start.Format("2006-01-02"))
			assert.Equal(t, "2025-12-31", end.Format("2006-01-02"))
			return rows, nil
		},
	}
	svc, _, done := newTestService(t, repo, officeConfig(), time.Now())
	defer done()

	resp, err := svc.MonthlySummary(context.Background(), uuid.New().String(), uuid.New().String(), 12, 2025)
	assert.NoError(t, err)
	assert.Equal(t, 4, resp.TotalRecords)
	assert.Equal(t, 2, resp.PresentDays)
	assert.Equal(t, 1, resp.LateDays)
	assert.Equal(t, 1, resp.HalfDays)
	assert.Equal(t, 24.0, resp.TotalWorkingHours)
	assert.Equal(t, 50.0, resp.AttendancePercentage)
}

func TestService_MonthlySummary_NoRecords(t *testing.T) {
	svc, _, done := newTestService(t, &fakeRepo{}, officeConfig(), time.Now())
	defer done()

	resp, err := svc.MonthlySummary(context.Background(), uuid.New().String(), uuid.New().String(), 2, 2026)
	assert.NoError(t, err)
	assert.Equal(t, 0, resp.TotalRecords)
	assert.Equal(t, 0.0, resp.AttendancePercentage)
}

func TestService_MonthlySummary_InvalidMonth(t *testing.T) {
	svc, _, done := newTestService(t, &fakeRepo{}, officeConfig(), time.Now())
	defer done()

	_, err := svc.MonthlySummary(context.Background(), uuid.New().String(), uuid.New().String(), 13, 2025)
	assert.ErrorIs(t, err, attendanceerrors.ErrInvalidMonth)
}

func TestService_MarkAttendance(t *testing.T) {
	var upserted *Attendance
	repo := &fakeRepo{
		upsertFn: func(ctx context.Context, a *Attendance) error { upserted = a; return nil },
	}
	svc, _, done := newTestService(t, repo, officeConfig(), time.Now())
	defer done()

	resp, err := svc.MarkAttendance(context.Background(), uuid.New().String(), MarkAttendanceRequest{
		EmployeeID: uuid.New().String(),
		Date:       "2025-12-20",
		Status:     "half_day",
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusHalfDay, resp.Status)
	assert.NotNil(t, upserted)
	assert.Nil(t, upserted.ClockIn)
}

func TestService_MarkAttendance_InvalidStatus(t *testing.T) {
	svc, _, done := newTestService(t, &fakeRepo{}, officeConfig(), time.Now())
	defer done()

	_, err := svc.MarkAttendance(context.Background(), uuid.New().String(), MarkAttendanceRequest{
		EmployeeID: uuid.New().String(),
		Date:       "2025-12-20",
		Status:     "ON_LEAVE",
	})
	assert.ErrorIs(t, err, attendanceerrors.ErrInvalidStatus)
}

func TestIsDuplicateDayViolation(t *testing.T) {
	err := errors.New(`ERROR: duplicate key value violates unique constraint "uq_attendance_employee_date" (SQLSTATE 23505)`)
	assert.True(t, isDuplicateDayViolation(err))
	assert.False(t, isDuplicateDayViolation(errors.New("connection refused")))
}

func errToDetails(err error) (GeofenceDetails, bool) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return GeofenceDetails{}, false
	}
	details, ok := appErr.Details.(GeofenceDetails)
	return details, ok
}
