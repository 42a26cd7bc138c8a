package models

import "time"

const DefaultTestimonialRating = 5

type Testimonial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	Country   string    `gorm:"type:varchar(100)" json:"country"`
	Quote     string    `gorm:"type:text;not null" json:"quote"`
	Result    string    `gorm:"type:varchar(255)" json:"result"`
	Rating    int       `gorm:"not null;default:5" json:"rating"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
