package employee

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	employeeerrors "go-attendance/internal/employee/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const RosterKeyPrefix = "employees:roster:"

func GetRosterKey(companyID string) string {
	return RosterKeyPrefix + companyID
}

type Service interface {
	GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error)
	ActiveRoster(ctx context.Context, companyID string) ([]EmployeeResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		s.logger.Error("get employee by id failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	return mapToResponse(*empl), nil
}

func (s *service) ActiveRoster(ctx context.Context, companyID string) ([]EmployeeResponse, error) {
	cacheKey := GetRosterKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Daily-summary bursts all want the same roster; collapse them.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindAllActiveByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(empls)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, string(jsonData), 1*time.Hour)
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Error("active roster lookup failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:               empl.ID.String(),
		EmployeeNumber:   empl.EmployeeNumber,
		FullName:         empl.FullName,
		Email:            empl.Email,
		EmploymentStatus: empl.EmploymentStatus,
		HireDate:         empl.HireDate.Format("2006-01-02"),
		CompanyID:        empl.CompanyID.String(),
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}
