package attendance

type ClockInRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     *string  `json:"notes"`
}

type ClockOutRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     *string  `json:"notes"`
}

type MarkAttendanceRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	Date       string  `json:"date" binding:"required"`
	Status     string  `json:"status" binding:"required"`
	Notes      *string `json:"notes"`
}

type AttendanceResponse struct {
	ID             string   `json:"id,omitempty"`
	CompanyID      string   `json:"company_id,omitempty"`
	EmployeeID     string   `json:"employee_id"`
	AttendanceDate string   `json:"attendance_date"`
	ClockIn        *string  `json:"clock_in,omitempty"`
	ClockOut       *string  `json:"clock_out,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	WithinRadius   bool     `json:"within_radius"`
	WorkingHours   *float64 `json:"working_hours,omitempty"`
	Status         string   `json:"status"`
	Notes          *string  `json:"notes,omitempty"`
}

type MonthlySummaryResponse struct {
	EmployeeID           string  `json:"employee_id"`
	Month                int     `json:"month"`
	Year                 int     `json:"year"`
	TotalRecords         int     `json:"total_records"`
	PresentDays          int     `json:"present_days"`
	LateDays             int     `json:"late_days"`
	HalfDays             int     `json:"half_days"`
	AbsentDays           int     `json:"absent_days"`
	WorkingDaysInMonth   int     `json:"working_days_in_month"`
	TotalWorkingHours    float64 `json:"total_working_hours"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// GeofenceDetails rides on GEOFENCE_VIOLATION errors so the client can tell
// the user how far outside the fence they were.
type GeofenceDetails struct {
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
}
