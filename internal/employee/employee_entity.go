package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is the read-side directory row. Records are provisioned by the
// HR master system; this service never writes them.
type Employee struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID `gorm:"type:uuid;index"`
	EmployeeNumber   string    `gorm:"type:varchar(20)"`
	FullName         string
	Email            string `gorm:"uniqueIndex"`
	EmploymentStatus string `gorm:"type:varchar(20);default:ACTIVE"`
	HireDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}
