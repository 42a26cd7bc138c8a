package models

import "time"

const (
	ROLE_STUDENT = "student"
	ROLE_PARENT  = "parent"
	ROLE_ADMIN   = "admin"
)

// Profile holds the customer facing data of a user and the role used by the admin gate.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Email     string    `gorm:"type:varchar(200)" json:"email"`
	FullName  string    `gorm:"type:varchar(150)" json:"full_name" validate:"max=150"`
	Role      string    `gorm:"type:varchar(20);not null;default:'student'" json:"role" validate:"oneof=student parent admin"`
	Country   string    `gorm:"type:varchar(100)" json:"country" validate:"max=100"`
	Timezone  string    `gorm:"type:varchar(100)" json:"timezone" validate:"max=100"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	AvatarURL string    `gorm:"type:varchar(255)" json:"avatar_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsAdmin reports whether the profile passes the admin gate.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == ROLE_ADMIN
}
