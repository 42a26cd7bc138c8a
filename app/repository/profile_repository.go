package repository

import (
	"context"

	"github.com/ManuelReschke/tutorsite/app/models"
	"gorm.io/gorm"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetRole reads only the role column. A missing profile yields gorm.ErrRecordNotFound.
func (r *profileRepository) GetRole(ctx context.Context, userID uint) (string, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Select("role").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// Update writes the editable profile fields
func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"full_name": profile.FullName,
			"country":   profile.Country,
			"timezone":  profile.Timezone,
			"phone":     profile.Phone,
		}).Error
}
