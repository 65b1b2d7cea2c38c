package models

import (
	"time"

	"github.com/google/uuid"
)

// Student holds the slice of the student record the fee workflow needs.
// Student management itself lives in a separate system.
type Student struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdmissionNo   string    `gorm:"column:admission_no;not null;uniqueIndex"`
	Name          string    `gorm:"column:name;not null"`
	Class         string    `gorm:"column:class;not null"`
	Section       string    `gorm:"column:section"`
	GuardianName  string    `gorm:"column:guardian_name"`
	GuardianPhone string    `gorm:"column:guardian_phone"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
