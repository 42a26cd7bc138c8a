package billing

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/tutorsite/app/models"
)

type fakeRepository struct {
	mu        sync.Mutex
	events    []*models.PaymentWebhookEvent
	orders    []*models.Order
	purchases []*models.Purchase
	products  map[uint]bool
	writes    int
	failOrder error
}

func newFakeRepository(productIDs ...uint) *fakeRepository {
	products := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		products[id] = true
	}
	return &fakeRepository{products: products}
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(_ context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Provider == event.Provider && e.EventKey == event.EventKey {
			cp := *e
			return false, &cp, nil
		}
	}
	f.writes++
	event.ID = uint(len(f.events) + 1)
	stored := *event
	f.events = append(f.events, &stored)
	cp := stored
	return true, &cp, nil
}

func (f *fakeRepository) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

func (f *fakeRepository) ExistingProductIDs(_ context.Context, ids []uint) ([]uint, error) {
	var out []uint
	for _, id := range ids {
		if f.products[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateOrderWithPurchases(_ context.Context, order *models.Order, productIDs []uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOrder != nil {
		return 0, f.failOrder
	}
	var existing *models.Order
	for _, o := range f.orders {
		if o.LSOrderID == order.LSOrderID {
			existing = o
		}
	}
	if existing == nil {
		f.writes++
		order.ID = uint(len(f.orders) + 1)
		stored := *order
		f.orders = append(f.orders, &stored)
		existing = &stored
	}
	*order = *existing

	created := 0
	for _, pid := range productIDs {
		dup := false
		for _, p := range f.purchases {
			if p.UserID == order.UserID && p.ProductID == pid {
				dup = true
			}
		}
		if dup {
			continue
		}
		orderID := order.ID
		f.purchases = append(f.purchases, &models.Purchase{
			ID:        uint(len(f.purchases) + 1),
			UserID:    order.UserID,
			ProductID: pid,
			OrderID:   &orderID,
		})
		f.writes++
		created++
	}
	return created, nil
}

func (f *fakeRepository) UpdateOrderStatus(_ context.Context, lsOrderID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.orders {
		if o.LSOrderID == lsOrderID {
			o.Status = status
			n++
			f.writes++
		}
	}
	return n, nil
}
