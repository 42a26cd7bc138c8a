package models

import "time"

const (
	CLASS_STATUS_ACTIVE   = "active"
	CLASS_STATUS_INACTIVE = "inactive"

	DefaultClassMaxStudents = 6
)

// Class is a scheduled online group class with a seat limit.
type Class struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	ExamBoard       string    `gorm:"type:varchar(50)" json:"exam_board"`
	Level           string    `gorm:"type:varchar(50)" json:"level"`
	Tier            string    `gorm:"type:varchar(50)" json:"tier"`
	Day             string    `gorm:"type:varchar(20)" json:"day"`
	TimeUK          string    `gorm:"column:time_uk;type:varchar(20)" json:"time_uk"`
	TimeGulf        string    `gorm:"column:time_gulf;type:varchar(20)" json:"time_gulf"`
	ZoomLink        string    `gorm:"type:varchar(512)" json:"zoom_link,omitempty"`
	PricePerStudent float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price_per_student"`
	MaxStudents     int       `gorm:"not null;default:6" json:"max_students"`
	Status          string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the class accepts enrollment requests.
func (c *Class) IsActive() bool {
	return c != nil && c.Status == CLASS_STATUS_ACTIVE
}

// IsValidClassStatus reports whether s is a known class status.
func IsValidClassStatus(s string) bool {
	return s == CLASS_STATUS_ACTIVE || s == CLASS_STATUS_INACTIVE
}
