package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository creates a new class repository instance
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

type classCount struct {
	ClassID uint
	Total   int64
}

// ListActiveWithAvailability returns active classes newest first together with
// their confirmed seat count
func (r *classRepository) ListActiveWithAvailability(ctx context.Context) ([]ClassWithAvailability, error) {
	db := r.db.WithContext(ctx)

	var classes []models.Class
	if err := db.Where("status = ?", models.CLASS_STATUS_ACTIVE).
		Order("created_at DESC").Find(&classes).Error; err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []ClassWithAvailability{}, nil
	}

	ids := make([]uint, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}

	var counts []classCount
	if err := db.Model(&models.ClassEnrollment{}).
		Select("class_id, COUNT(*) AS total").
		Where("class_id IN ? AND payment_status = ?", ids, models.PAYMENT_STATUS_CONFIRMED).
		Group("class_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byClass := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byClass[c.ClassID] = c.Total
	}

	out := make([]ClassWithAvailability, 0, len(classes))
	for _, c := range classes {
		out = append(out, NewClassWithAvailability(c, byClass[c.ID]))
	}
	return out, nil
}

// NewClassWithAvailability derives the free seats from a confirmed count
func NewClassWithAvailability(class models.Class, confirmed int64) ClassWithAvailability {
	left := int64(class.MaxStudents) - confirmed
	if left < 0 {
		left = 0
	}
	return ClassWithAvailability{Class: class, EnrollmentCount: confirmed, SpotsLeft: left}
}

func (r *classRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&classes).Error
	return classes, err
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (*models.Class, error) {
	var class models.Class
	err := r.db.WithContext(ctx).First(&class, id).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}

// Delete removes the class and its enrollments
func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.ClassEnrollment{}).Error; err != nil {
			return err
		}
		return deleteByID(ctx, tx, &models.Class{}, id)
	})
}
