package models

import "time"

const (
	PAYMENT_STATUS_PENDING   = "pending"
	PAYMENT_STATUS_CONFIRMED = "confirmed"
	PAYMENT_STATUS_CANCELLED = "cancelled"

	DefaultPaymentMethod = "bank_transfer"
)

// ClassEnrollment is a seat request of one user for one class.
// (class_id, user_id) is unique.
type ClassEnrollment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ClassID       uint      `gorm:"not null;index:ux_class_enrollments_class_user,unique,priority:1;index:ix_class_enrollments_class_status,priority:1" json:"class_id"`
	UserID        uint      `gorm:"not null;index:ux_class_enrollments_class_user,unique,priority:2;index" json:"user_id"`
	PaymentMethod string    `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'pending';index:ix_class_enrollments_class_status,priority:2" json:"payment_status"`
	EnrolledAt    time.Time `gorm:"autoCreateTime;index" json:"enrolled_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Class         *Class    `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	Profile       *Profile  `gorm:"foreignKey:UserID;references:UserID" json:"profile,omitempty"`
}

// IsValidPaymentStatus reports whether s is a known enrollment payment status.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PAYMENT_STATUS_PENDING, PAYMENT_STATUS_CONFIRMED, PAYMENT_STATUS_CANCELLED:
		return true
	}
	return false
}
