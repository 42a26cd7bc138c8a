package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository instance
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// AdminCounts runs one COUNT per dashboard tile
func (r *statsRepository) AdminCounts(ctx context.Context) (*AdminCounts, error) {
	db := r.db.WithContext(ctx)
	counts := &AdminCounts{}

	queries := []struct {
		dst   *int64
		model interface{}
		where []interface{}
	}{
		{&counts.Products, &models.Product{}, nil},
		{&counts.ActiveProducts, &models.Product{}, []interface{}{"is_active = ?", true}},
		{&counts.Classes, &models.Class{}, nil},
		{&counts.Testimonials, &models.Testimonial{}, nil},
		{&counts.Messages, &models.Message{}, nil},
		{&counts.UnreadMessages, &models.Message{}, []interface{}{"is_read = ?", false}},
		{&counts.Enrollments, &models.ClassEnrollment{}, nil},
		{&counts.PendingEnrollments, &models.ClassEnrollment{}, []interface{}{"payment_status = ?", models.PAYMENT_STATUS_PENDING}},
		{&counts.Orders, &models.Order{}, nil},
	}
	for _, q := range queries {
		tx := db.Model(q.model)
		if len(q.where) > 0 {
			tx = tx.Where(q.where[0], q.where[1:]...)
		}
		if err := tx.Count(q.dst).Error; err != nil {
			return nil, err
		}
	}
	return counts, nil
}
