package models

import "time"

// Product is a downloadable exam resource sold through the storefront.
type Product struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"type:varchar(255);not null" json:"title"`
	Slug             string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	Description      string    `gorm:"type:text" json:"description"`
	ShortDescription string    `gorm:"type:varchar(500)" json:"short_description"`
	CategoryID       *uint     `gorm:"index" json:"category_id"`
	Category         *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ExamBoard        string    `gorm:"type:varchar(50);index" json:"exam_board"`
	Level            string    `gorm:"type:varchar(50);index" json:"level"`
	Tier             string    `gorm:"type:varchar(50)" json:"tier"`
	Year             string    `gorm:"type:varchar(10)" json:"year"`
	Price            float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	LemonSqueezyID   string    `gorm:"column:lemonsqueezy_id;type:varchar(100)" json:"lemonsqueezy_id"`
	FileURL          string    `gorm:"type:varchar(1024)" json:"file_url,omitempty"`
	ThumbnailURL     string    `gorm:"type:varchar(1024)" json:"thumbnail_url"`
	IsActive         bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Public returns a copy without the file location, which is only handed out
// through the purchase download flow.
func (p Product) Public() Product {
	p.FileURL = ""
	return p
}

// HasFile reports whether the product has a downloadable file attached.
func (p *Product) HasFile() bool {
	return p != nil && p.FileURL != ""
}
