package events

import "time"

const AttendanceClockedInTopic = "hr.attendance.clocked_in.v1"

type AttendanceClockedInEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	AttendanceID   string    `json:"attendance_id"`
	EmployeeID     string    `json:"employee_id"`
	CompanyID      string    `json:"company_id"`
	AttendanceDate string    `json:"attendance_date"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}
