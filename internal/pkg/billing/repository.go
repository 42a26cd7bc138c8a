package billing

import (
	"context"
	"time"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
	ExistingProductIDs(ctx context.Context, ids []uint) ([]uint, error)
	CreateOrderWithPurchases(ctx context.Context, order *models.Order, productIDs []uint) (int, error)
	UpdateOrderStatus(ctx context.Context, lsOrderID, status string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "event_key"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := db.Where("provider = ? AND event_key = ?", event.Provider, event.EventKey).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) ExistingProductIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

// CreateOrderWithPurchases writes the order and one purchase per product in a
// single transaction. An order that already exists for the provider order id
// is reused, and purchases the user already owns are skipped. It returns the
// number of purchase rows created.
func (r *gormRepository) CreateOrderWithPurchases(ctx context.Context, order *models.Order, productIDs []uint) (int, error) {
	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ls_order_id"}},
			DoNothing: true,
		}).Create(order).Error; err != nil {
			return err
		}
		if err := tx.Where("ls_order_id = ?", order.LSOrderID).First(order).Error; err != nil {
			return err
		}

		for _, productID := range productIDs {
			orderID := order.ID
			purchase := &models.Purchase{
				UserID:    order.UserID,
				ProductID: productID,
				OrderID:   &orderID,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "user_id"},
					{Name: "product_id"},
				},
				DoNothing: true,
			}).Create(purchase)
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *gormRepository) UpdateOrderStatus(ctx context.Context, lsOrderID, status string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).Where("ls_order_id = ?", lsOrderID).Update("status", status)
	return tx.RowsAffected, tx.Error
}
