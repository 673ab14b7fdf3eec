package leave

type DocumentMeta struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type ApplyLeaveRequest struct {
	LeaveType string        `json:"leave_type" binding:"required,oneof=SICK CASUAL EARNED UNPAID"`
	StartDate string        `json:"start_date" binding:"required"`
	EndDate   string        `json:"end_date" binding:"required"`
	Reason    string        `json:"reason" binding:"required"`
	Document  *DocumentMeta `json:"document"`
}

type RejectLeaveRequest struct {
	Reason *string `json:"reason"`
}

type LeaveResponse struct {
	ID              string        `json:"id"`
	CompanyID       string        `json:"company_id"`
	EmployeeID      string        `json:"employee_id"`
	LeaveType       string        `json:"leave_type"`
	StartDate       string        `json:"start_date"`
	EndDate         string        `json:"end_date"`
	TotalDays       int           `json:"total_days"`
	Reason          string        `json:"reason"`
	Document        *DocumentMeta `json:"document,omitempty"`
	Status          string        `json:"status"`
	ApprovedBy      *string       `json:"approved_by,omitempty"`
	ApprovedAt      *string       `json:"approved_at,omitempty"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	CreatedAt       string        `json:"created_at"`
}

type TypeBalance struct {
	LeaveType string `json:"leave_type"`
	Allowance int    `json:"allowance"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

type BalanceResponse struct {
	EmployeeID     string        `json:"employee_id"`
	Year           int           `json:"year"`
	Types          []TypeBalance `json:"types"`
	TotalAllowance int           `json:"total_allowance"`
	TotalUsed      int           `json:"total_used"`
	TotalRemaining int           `json:"total_remaining"`
}

// OverlapDetails rides on CONFLICT errors so the caller sees which request
// blocked the new one.
type OverlapDetails struct {
	ConflictingStatus string `json:"conflicting_status"`
	ConflictingStart  string `json:"conflicting_start"`
	ConflictingEnd    string `json:"conflicting_end"`
}

type ListFilter struct {
	Status    string
	LeaveType string
}
