package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attendance struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID      uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID     uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_attendance_employee_date"`
	AttendanceDate time.Time  `gorm:"column:attendance_date;type:date;not null;uniqueIndex:uq_attendance_employee_date"`
	ClockIn        *time.Time `gorm:"column:clock_in;type:timestamptz"`
	ClockOut       *time.Time `gorm:"column:clock_out;type:timestamptz"`
	ClockInLat     *float64   `gorm:"column:clock_in_lat"`
	ClockInLng     *float64   `gorm:"column:clock_in_lng"`
	ClockOutLat    *float64   `gorm:"column:clock_out_lat"`
	ClockOutLng    *float64   `gorm:"column:clock_out_lng"`
	DistanceMeters *float64   `gorm:"column:distance_meters"`
	WithinRadius   bool       `gorm:"column:within_radius;not null;default:true"`
	WorkingHours   *float64   `gorm:"column:working_hours"`
	Status         string     `gorm:"column:status;type:varchar(20);not null;default:PRESENT"`
	Notes          *string    `gorm:"column:notes;type:text"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Attendance) TableName() string {
	return "attendances"
}
