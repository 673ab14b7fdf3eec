package employee

type EmployeeResponse struct {
	ID               string `json:"id"`
	EmployeeNumber   string `json:"employee_number"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	EmploymentStatus string `json:"employment_status"`
	HireDate         string `json:"hire_date"`
	CompanyID        string `json:"company_id"`
}
