package models

import "time"

const (
	ORDER_STATUS_PENDING  = "pending"
	ORDER_STATUS_PAID     = "paid"
	ORDER_STATUS_REFUNDED = "refunded"
)

// Order is created once per provider order id.
type Order struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	LSOrderID   string     `gorm:"column:ls_order_id;type:varchar(100);not null;uniqueIndex" json:"ls_order_id"`
	TotalAmount float64    `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	Currency    string     `gorm:"type:varchar(10)" json:"currency"`
	Status      string     `gorm:"type:varchar(20);not null;index" json:"status"`
	Purchases   []Purchase `gorm:"foreignKey:OrderID" json:"purchases,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Purchase grants one user one product. (user_id, product_id) is unique.
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_purchases_user_product,unique,priority:1" json:"user_id"`
	ProductID uint      `gorm:"not null;index:ux_purchases_user_product,unique,priority:2;index" json:"product_id"`
	OrderID   *uint     `gorm:"index" json:"order_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Download records one delivered download of a purchased product.
type Download struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PurchaseID   uint      `gorm:"not null;index" json:"purchase_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	DownloadedAt time.Time `gorm:"autoCreateTime" json:"downloaded_at"`
}
