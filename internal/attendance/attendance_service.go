package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	attendanceerrors "go-attendance/internal/attendance/errors"
	"go-attendance/internal/events"
	"go-attendance/internal/geofence"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/shared/calendar"
	"go-attendance/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"
	StatusHalfDay = "HALF_DAY"
	StatusAbsent  = "ABSENT"

	defaultCutoffHour = 9
)

// Config carries the office geofence and the on-time cutoff. It is passed in
// explicitly so tests can run different fences side by side.
type Config struct {
	Office     geofence.Office
	CutoffHour int
	Location   *time.Location
}

func (c Config) cutoffHour() int {
	if c.CutoffHour <= 0 {
		return defaultCutoffHour
	}
	return c.CutoffHour
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

type Service interface {
	ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (AttendanceResponse, error)
	DailySummary(ctx context.Context, companyID, employeeID, date string) (AttendanceResponse, error)
	MonthlySummary(ctx context.Context, companyID, employeeID string, month, year int) (MonthlySummaryResponse, error)
	MarkAttendance(ctx context.Context, companyID string, req MarkAttendanceRequest) (AttendanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, cfg Config, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, cfg, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	cfg Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		cfg:    cfg,
		now:    time.Now,
		logger: l,
	}
}

func (s *service) ClockIn(ctx context.Context, companyID, employeeID string, req ClockInRequest) (AttendanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("clock in requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	if req.Latitude == nil || req.Longitude == nil {
		s.logger.Warn("clock in without location", zap.String("employee_id", employeeID))
		return AttendanceResponse{}, attendanceerrors.ErrLocationRequired
	}

	check := s.cfg.Office.Check(*req.Latitude, *req.Longitude)
	if !check.OK {
		s.logger.Warn("clock in outside geofence",
			zap.String("employee_id", employeeID),
			zap.Float64("distance_meters", *check.Distance),
			zap.Float64("radius_meters", s.cfg.Office.RadiusMeters),
		)
		return AttendanceResponse{}, attendanceerrors.ErrOutsideGeofence.WithDetails(GeofenceDetails{
			DistanceMeters: round2(*check.Distance),
			RadiusMeters:   s.cfg.Office.RadiusMeters,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock in begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().In(s.cfg.location())
	today := calendar.DayStart(now)

	existing, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("clock in lookup failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if existing != nil && existing.ClockIn != nil {
		s.logger.Warn("duplicate clock in",
			zap.String("employee_id", employeeID),
			zap.String("attendance_date", today.Format("2006-01-02")),
		)
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
	}

	status := StatusPresent
	if !now.Before(calendar.AtHour(now, s.cfg.cutoffHour())) {
		status = StatusLate
	}

	var row *Attendance
	if existing != nil {
		// Admin-marked row without a clock in. Fill the clock-in fields; the
		// status never reverts to ABSENT once a clock in exists.
		row = existing
		row.ClockIn = &now
		row.Status = status
		row.ClockInLat = req.Latitude
		row.ClockInLng = req.Longitude
		row.DistanceMeters = check.Distance
		row.WithinRadius = true
		if req.Notes != nil {
			row.Notes = req.Notes
		}
		err = qtx.Update(ctx, row)
	} else {
		row = &Attendance{
			ID:             uuid.New(),
			CompanyID:      companyUUID,
			EmployeeID:     employeeUUID,
			AttendanceDate: today,
			ClockIn:        &now,
			ClockInLat:     req.Latitude,
			ClockInLng:     req.Longitude,
			DistanceMeters: check.Distance,
			WithinRadius:   true,
			Status:         status,
			Notes:          req.Notes,
		}
		err = qtx.Create(ctx, row)
	}
	if err != nil {
		// A concurrent clock in for the same day trips the unique constraint.
		if isDuplicateDayViolation(err) {
			return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
		}
		s.logger.Error("clock in persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	if err := s.enqueueClockedInEvent(ctx, tx, rid, row); err != nil {
		return AttendanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		if isDuplicateDayViolation(err) {
			return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedIn
		}
		s.logger.Error("clock in commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("clock in success",
		zap.String("request_id", rid),
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", employeeID),
		zap.String("status", row.Status),
	)
	return mapToResponse(*row), nil
}

func (s *service) ClockOut(ctx context.Context, companyID, employeeID string, req ClockOutRequest) (AttendanceResponse, error) {
	s.logger.Debug("clock out requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock out begin tx failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().In(s.cfg.location())
	today := calendar.DayStart(now)

	row, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoClockIn
		}
		s.logger.Error("clock out lookup failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if row.ClockIn == nil {
		return AttendanceResponse{}, attendanceerrors.ErrNoClockIn
	}
	if row.ClockOut != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyClockedOut
	}

	row.ClockOut = &now
	hours := now.Sub(*row.ClockIn).Hours()
	if hours < 0 {
		hours = 0
	}
	wh := round2(hours)
	row.WorkingHours = &wh

	if req.Latitude != nil {
		row.ClockOutLat = req.Latitude
	}
	if req.Longitude != nil {
		row.ClockOutLng = req.Longitude
	}
	if req.Notes != nil {
		row.Notes = req.Notes
	}
	// A checkout against a row that never got a proper status is an anomaly;
	// default it to PRESENT rather than leaving ABSENT on a worked day.
	if row.Status == "" || row.Status == StatusAbsent {
		row.Status = StatusPresent
	}

	if err := qtx.Update(ctx, row); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("clock out commit failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("clock out success",
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Float64("working_hours", wh),
	)
	return mapToResponse(*row), nil
}

func (s *service) DailySummary(ctx context.Context, companyID, employeeID, date string) (AttendanceResponse, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.cfg.location())
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidDateFormat
	}

	row, err := s.repo.FindByEmployeeAndDate(ctx, companyID, employeeID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absence is never stored; it is the read-time default.
			return AttendanceResponse{
				EmployeeID:     employeeID,
				AttendanceDate: day.Format("2006-01-02"),
				Status:         StatusAbsent,
			}, nil
		}
		return AttendanceResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) MonthlySummary(ctx context.Context, companyID, employeeID string, month, year int) (MonthlySummaryResponse, error) {
	if month < 1 || month > 12 {
		return MonthlySummaryResponse{}, attendanceerrors.ErrInvalidMonth
	}

	first, last := calendar.MonthRange(year, time.Month(month), s.cfg.location())
	rows, err := s.repo.FindAllByEmployeeAndRange(ctx, companyID, employeeID, first, last)
	if err != nil {
		s.logger.Error("monthly summary lookup failed", zap.Error(err))
		return MonthlySummaryResponse{}, err
	}

	summary := MonthlySummaryResponse{
		EmployeeID:         employeeID,
		Month:              month,
		Year:               year,
		TotalRecords:       len(rows),
		WorkingDaysInMonth: calendar.WorkingDaysIn(year, time.Month(month), s.cfg.location()),
	}

	var totalHours float64
	for _, row := range rows {
		switch row.Status {
		case StatusPresent:
			summary.PresentDays++
		case StatusLate:
			summary.LateDays++
		case StatusHalfDay:
			summary.HalfDays++
		case StatusAbsent:
			summary.AbsentDays++
		}
		if row.WorkingHours != nil {
			totalHours += *row.WorkingHours
		}
	}
	summary.TotalWorkingHours = round2(totalHours)
	if len(rows) > 0 {
		summary.AttendancePercentage = round2(float64(summary.PresentDays) / float64(len(rows)) * 100)
	}

	return summary, nil
}

func (s *service) MarkAttendance(ctx context.Context, companyID string, req MarkAttendanceRequest) (AttendanceResponse, error) {
	s.logger.Debug("mark attendance requested",
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("status", req.Status),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !isValidStatus(status) {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidStatus
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, s.cfg.location())
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidDateFormat
	}

	row := &Attendance{
		ID:             uuid.New(),
		CompanyID:      companyUUID,
		EmployeeID:     employeeUUID,
		AttendanceDate: calendar.DayStart(day),
		Status:         status,
		Notes:          req.Notes,
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		s.logger.Error("mark attendance persist failed", zap.Error(err))
		return AttendanceResponse{}, err
	}

	s.logger.Info("mark attendance success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("attendance_date", row.AttendanceDate.Format("2006-01-02")),
		zap.String("status", status),
	)
	return mapToResponse(*row), nil
}

func (s *service) enqueueClockedInEvent(ctx context.Context, tx *sql.Tx, rid string, row *Attendance) error {
	if s.outbox == nil {
		return nil
	}

	event := events.AttendanceClockedInEvent{
		EventType:      "attendance_clocked_in",
		RequestID:      rid,
		AttendanceID:   row.ID.String(),
		EmployeeID:     row.EmployeeID.String(),
		CompanyID:      row.CompanyID.String(),
		AttendanceDate: row.AttendanceDate.Format("2006-01-02"),
		Status:         row.Status,
		OccurredAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal clocked in event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "attendance",
		AggregateID:   row.ID.String(),
		EventType:     event.EventType,
		Topic:         events.AttendanceClockedInTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("clock in outbox persist failed",
			zap.String("attendance_id", row.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func isValidStatus(status string) bool {
	switch status {
	case StatusPresent, StatusLate, StatusHalfDay, StatusAbsent:
		return true
	default:
		return false
	}
}

func isDuplicateDayViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_attendance_employee_date"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_attendance_employee_date")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:             a.ID.String(),
		CompanyID:      a.CompanyID.String(),
		EmployeeID:     a.EmployeeID.String(),
		AttendanceDate: a.AttendanceDate.Format("2006-01-02"),
		Latitude:       a.ClockInLat,
		Longitude:      a.ClockInLng,
		DistanceMeters: a.DistanceMeters,
		WithinRadius:   a.WithinRadius,
		WorkingHours:   a.WorkingHours,
		Status:         a.Status,
		Notes:          a.Notes,
	}
	if a.ClockIn != nil {
		v := a.ClockIn.Format(time.RFC3339)
		resp.ClockIn = &v
	}
	if a.ClockOut != nil {
		v := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &v
	}
	return resp
}
