package enrollment

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/tutorsite/app/models"
)

// Repository is the persistence the capacity gate needs. Calls made on the
// Repository handed to Transaction run inside that transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	LockClass(ctx context.Context, classID uint) (*models.Class, error)
	FindEnrollment(ctx context.Context, classID, userID uint) (*models.ClassEnrollment, error)
	CountConfirmed(ctx context.Context, classID uint) (int64, error)
	CreateEnrollment(ctx context.Context, e *models.ClassEnrollment) error
	GetEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error)
	LockEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error)
	UpdatePaymentStatus(ctx context.Context, id uint, status string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an enrollment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

// LockClass reads the class row with SELECT ... FOR UPDATE. Concurrent
// requests for the same class queue on this lock until the holder commits.
func (r *gormRepository) LockClass(ctx context.Context, classID uint) (*models.Class, error) {
	var class models.Class
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&class, classID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *gormRepository) FindEnrollment(ctx context.Context, classID, userID uint) (*models.ClassEnrollment, error) {
	var e models.ClassEnrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Limit(1).Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *gormRepository) CountConfirmed(ctx context.Context, classID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ClassEnrollment{}).
		Where("class_id = ? AND payment_status = ?", classID, models.PAYMENT_STATUS_CONFIRMED).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) CreateEnrollment(ctx context.Context, e *models.ClassEnrollment) error {
	return r.db.WithContext(ctx).Omit("Class", "Profile").Create(e).Error
}

func (r *gormRepository) GetEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error) {
	var e models.ClassEnrollment
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormRepository) LockEnrollment(ctx context.Context, id uint) (*models.ClassEnrollment, error) {
	var e models.ClassEnrollment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *gormRepository) UpdatePaymentStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.ClassEnrollment{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}
