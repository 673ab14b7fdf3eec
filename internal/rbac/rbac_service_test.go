package rbac

import (
	"testing"

	"go-attendance/internal/domain"
	"go-attendance/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
)

type mockRepo struct{}

func (m *mockRepo) GetEmployeeRoles(companyID string) ([]EmployeeRoleRow, error) {
	if companyID != "company-1" {
		return nil, nil
	}
	return []EmployeeRoleRow{
		{EmployeeID: "emp-1", RoleID: "role-hr-admin"},
	}, nil
}

func (m *mockRepo) GetRolePermissions(companyID string) ([]RolePermissionRow, error) {
	if companyID != "company-1" {
		return nil, nil
	}
	return []RolePermissionRow{
		{RoleID: "role-hr-admin", Resource: "attendance", Action: "manage"},
		{RoleID: "role-hr-admin", Resource: "leave", Action: "manage"},
		{RoleID: "role-hr-admin", Resource: "report", Action: "read"},
	}, nil
}

func TestRBACService_Enforce(t *testing.T) {
	enforcer, err := infra.NewEnforcer()
	assert.NoError(t, err)

	service := NewService(&mockRepo{}, enforcer)

	err = service.LoadCompanyPolicy("company-1")
	assert.NoError(t, err)

	allowed, err := service.Enforce(domain.EnforceRequest{
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
		Resource:   "leave",
		Action:     "manage",
	})
	assert.NoError(t, err)
	assert.True(t, allowed)

	denied, err := service.Enforce(domain.EnforceRequest{
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
		Resource:   "attendance",
		Action:     "create",
	})
	assert.NoError(t, err)
	assert.False(t, denied)

	// Role grants are domain scoped; the same employee in another company
	// gets nothing.
	crossCompany, err := service.Enforce(domain.EnforceRequest{
		EmployeeID: "emp-1",
		CompanyID:  "company-2",
		Resource:   "leave",
		Action:     "manage",
	})
	assert.NoError(t, err)
	assert.False(t, crossCompany)
}
