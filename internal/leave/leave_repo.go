package leave

import (
	"context"
	"database/sql"
	"time"

	"go-attendance/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	AcquireEmployeeLock(ctx context.Context, companyID, employeeID string) error
	Create(ctx context.Context, l *Leave) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Leave, error)
	FindOverlapping(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, statuses []string) ([]Leave, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Leave, error)
	FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Leave, error)
	FindApprovedByEmployeeAndYear(ctx context.Context, companyID, employeeID string, year int) ([]Leave, error)
	Update(ctx context.Context, l *Leave) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds every statement onto tx, so the leave row and its outbox
// event commit or roll back as one unit.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

// AcquireEmployeeLock takes a transaction-scoped advisory lock keyed by the
// employee. Concurrent applies for the same employee serialize on it, so the
// overlap scan always sees a competing insert. Released at commit or rollback.
func (r *repository) AcquireEmployeeLock(ctx context.Context, companyID, employeeID string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?), hashtext(?))", companyID, employeeID).Error
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindOverlapping returns the employee's requests in the given statuses whose
// inclusive date range intersects [startDate, endDate].
func (r *repository) FindOverlapping(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, statuses []string) ([]Leave, error) {
	var rows []Leave
	err := r.db.WithContext(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("status IN ?", statuses).
		Where("start_date <= ? AND end_date >= ?", endDate.Format("2006-01-02"), startDate.Format("2006-01-02")).
		Order("start_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Leave, error) {
	var rows []Leave
	err := r.db.WithContext(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Leave, error) {
	db := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.LeaveType != "" {
		db = db.Where("leave_type = ?", filter.LeaveType)
	}

	var rows []Leave
	err := db.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindApprovedByEmployeeAndYear(ctx context.Context, companyID, employeeID string, year int) ([]Leave, error) {
	var rows []Leave
	err := r.db.WithContext(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("status = ?", StatusApproved).
		Where("EXTRACT(YEAR FROM start_date) = ?", year).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Save(l).Error
}
