package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository instance
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// ListByUser returns the caller's enrollments with their class, newest first
func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.ClassEnrollment, error) {
	var enrollments []models.ClassEnrollment
	err := r.db.WithContext(ctx).Preload("Class").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// ListAll returns every enrollment with class and profile for the back office
func (r *enrollmentRepository) ListAll(ctx context.Context) ([]models.ClassEnrollment, error) {
	var enrollments []models.ClassEnrollment
	err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Profile", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "user_id", "full_name", "email")
		}).
		Order("enrolled_at DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClassEnrollment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// GetByID loads one enrollment with its class and profile
func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (*models.ClassEnrollment, error) {
	var e models.ClassEnrollment
	err := r.db.WithContext(ctx).Preload("Class").Preload("Profile").First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
