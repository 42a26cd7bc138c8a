package models

import "time"

const (
	MESSAGE_TYPE_CONTACT       = "contact"
	MESSAGE_TYPE_INTRO_SESSION = "intro-session"
)

// Message is a contact form or intro session request.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	Email     string    `gorm:"type:varchar(200);not null" json:"email"`
	Country   string    `gorm:"type:varchar(100)" json:"country"`
	Level     string    `gorm:"type:varchar(50)" json:"level"`
	ExamBoard string    `gorm:"type:varchar(50)" json:"exam_board"`
	Type      string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// IsValidMessageType reports whether t is a known message type.
func IsValidMessageType(t string) bool {
	return t == MESSAGE_TYPE_CONTACT || t == MESSAGE_TYPE_INTRO_SESSION
}
