package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Purchases").Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// ListPurchasesByUser returns purchases with product, newest first. limit <= 0 means all.
func (r *orderRepository) ListPurchasesByUser(ctx context.Context, userID uint, limit int) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).Preload("Product").Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var purchases []models.Purchase
	err := q.Find(&purchases).Error
	return purchases, err
}

func (r *orderRepository) CountPurchasesByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetPurchaseForUser only matches purchases owned by userID
func (r *orderRepository) GetPurchaseForUser(ctx context.Context, purchaseID, userID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND user_id = ?", purchaseID, userID).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *orderRepository) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) RecordDownload(ctx context.Context, download *models.Download) error {
	return r.db.WithContext(ctx).Create(download).Error
}
