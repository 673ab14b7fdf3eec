package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-attendance/internal/events"
	leaveerrors "go-attendance/internal/leave/errors"
	"go-attendance/internal/messaging/kafka"
	"go-attendance/internal/shared/calendar"
	"go-attendance/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	TypeSick   = "SICK"
	TypeCasual = "CASUAL"
	TypeEarned = "EARNED"
	TypeUnpaid = "UNPAID"
)

// blockingStatuses are the statuses a new request must not date-overlap.
// Rejected requests release their days.
var blockingStatuses = []string{StatusPending, StatusApproved}

type Service interface {
	Apply(ctx context.Context, companyID, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	Approve(ctx context.Context, companyID, approverID, id string) (LeaveResponse, error)
	Reject(ctx context.Context, companyID, id string, reason *string) (LeaveResponse, error)
	Balance(ctx context.Context, companyID, employeeID string, year int) (BalanceResponse, error)
	ListForEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveResponse, error)
	ListAll(ctx context.Context, companyID string, filter ListFilter) ([]LeaveResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	policy Policy
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, policy Policy, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, policy, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	policy Policy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		policy: policy.normalized(),
		logger: l,
	}
}

func (s *service) Apply(ctx context.Context, companyID, employeeID string, req ApplyLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("apply leave requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, employeeUUID, startDate, endDate, err := validateApplyRequest(companyID, employeeID, req)
	if err != nil {
		s.logger.Warn("apply leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Overlap detection is check-then-insert; the lock keeps two applies for
	// the same employee from interleaving between scan and insert.
	if err := qtx.AcquireEmployeeLock(ctx, companyID, employeeID); err != nil {
		s.logger.Error("apply leave lock failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	conflicts, err := qtx.FindOverlapping(ctx, companyID, employeeID, startDate, endDate, blockingStatuses)
	if err != nil {
		s.logger.Error("apply leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if len(conflicts) > 0 {
		conflict := conflicts[0]
		s.logger.Warn("apply leave overlap detected",
			zap.String("employee_id", employeeID),
			zap.String("conflicting_leave_id", conflict.ID.String()),
			zap.String("conflicting_status", conflict.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap.WithDetails(OverlapDetails{
			ConflictingStatus: conflict.Status,
			ConflictingStart:  conflict.StartDate.Format("2006-01-02"),
			ConflictingEnd:    conflict.EndDate.Format("2006-01-02"),
		})
	}

	l := &Leave{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		LeaveType:  req.LeaveType,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalDays:  calendar.DaySpan(startDate, endDate),
		Reason:     req.Reason,
		Status:     StatusPending,
	}
	if req.Document != nil {
		l.DocumentName = &req.Document.Name
		l.DocumentURL = &req.Document.URL
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.enqueueStatusEvent(ctx, tx, rid, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("apply leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int("total_days", l.TotalDays),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, companyID, approverID, id string) (LeaveResponse, error) {
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidApproverID
	}
	return s.transitionStatus(ctx, companyID, id, StatusApproved, &approverUUID, nil)
}

func (s *service) Reject(ctx context.Context, companyID, id string, reason *string) (LeaveResponse, error) {
	return s.transitionStatus(ctx, companyID, id, StatusRejected, nil, reason)
}

// transitionStatus moves a request to APPROVED or REJECTED. Terminal requests
// are deliberately not locked: a second approve/reject overwrites the prior
// decision, matching the historical workflow (see DESIGN.md open questions).
func (s *service) transitionStatus(
	ctx context.Context,
	companyID, id, targetStatus string,
	approverID *uuid.UUID,
	rejectionReason *string,
) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("transition leave status requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("company_id", companyID),
		zap.String("target_status", targetStatus),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("transition leave status begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	l.Status = targetStatus
	switch targetStatus {
	case StatusApproved:
		l.ApprovedBy = approverID
		now := time.Now().UTC()
		l.ApprovedAt = &now
		l.RejectionReason = nil
	case StatusRejected:
		l.ApprovedBy = nil
		l.ApprovedAt = nil
		l.RejectionReason = rejectionReason
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("transition leave status persist failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	if err := s.enqueueStatusEvent(ctx, tx, rid, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("transition leave status commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("transition leave status success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
	)
	return mapToResponse(*l), nil
}

func (s *service) Balance(ctx context.Context, companyID, employeeID string, year int) (BalanceResponse, error) {
	approved, err := s.repo.FindApprovedByEmployeeAndYear(ctx, companyID, employeeID, year)
	if err != nil {
		s.logger.Error("balance lookup failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	usedByType := make(map[string]int)
	totalUsed := 0
	for _, l := range approved {
		usedByType[l.LeaveType] += l.TotalDays
		totalUsed += l.TotalDays
	}

	resp := BalanceResponse{
		EmployeeID:     employeeID,
		Year:           year,
		TotalAllowance: s.policy.OverallAllowance,
		TotalUsed:      totalUsed,
		// Remaining may go negative; the policy does not clamp it.
		TotalRemaining: s.policy.OverallAllowance - totalUsed,
	}

	for _, leaveType := range []string{TypeSick, TypeCasual, TypeEarned, TypeUnpaid} {
		allowance := s.policy.PerType[leaveType]
		used := usedByType[leaveType]
		resp.Types = append(resp.Types, TypeBalance{
			LeaveType: leaveType,
			Allowance: allowance,
			Used:      used,
			Remaining: allowance - used,
		})
	}

	return resp, nil
}

func (s *service) ListForEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveResponse, error) {
	rows, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) ListAll(ctx context.Context, companyID string, filter ListFilter) ([]LeaveResponse, error) {
	rows, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) enqueueStatusEvent(ctx context.Context, tx *sql.Tx, rid string, l *Leave) error {
	if s.outbox == nil {
		return nil
	}

	event := events.LeaveStatusChangedEvent{
		EventType:  "leave_status_changed",
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		CompanyID:  l.CompanyID.String(),
		LeaveType:  l.LeaveType,
		Status:     l.Status,
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal leave status event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave",
		AggregateID:   l.ID.String(),
		EventType:     event.EventType,
		Topic:         events.LeaveStatusChangedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func validateApplyRequest(companyID, employeeID string, req ApplyLeaveRequest) (uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidEmployeeID
	}
	if !isValidType(req.LeaveType) {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidLeaveType
	}
	if req.Reason == "" {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrReasonRequired
	}
	if req.LeaveType == TypeSick && req.Document == nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrSickDocumentRequired
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return companyUUID, employeeUUID, startDate, endDate, nil
}

func isValidType(leaveType string) bool {
	switch leaveType {
	case TypeSick, TypeCasual, TypeEarned, TypeUnpaid:
		return true
	default:
		return false
	}
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		CompanyID:  l.CompanyID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format("2006-01-02"),
		EndDate:    l.EndDate.Format("2006-01-02"),
		TotalDays:  l.TotalDays,
		Reason:     l.Reason,
		Status:     l.Status,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
	if l.DocumentName != nil && l.DocumentURL != nil {
		resp.Document = &DocumentMeta{Name: *l.DocumentName, URL: *l.DocumentURL}
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovedAt != nil {
		v := l.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(rows []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(rows))
	for i, l := range rows {
		resp[i] = mapToResponse(l)
	}
	return resp
}
