// Package settings provides database operations for application settings,
// plus typed accessors for the keys the sync flow relies on.
package settings

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/kindle-sync/internal/entities"
	"github.com/mrlokans/kindle-sync/internal/regions"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// Region returns the configured Amazon region, defaulting to the global site
// when none was ever set. A stored value that no longer resolves is an error,
// not a silent fallback.
func (r *Repository) Region() (regions.Region, error) {
	setting, err := r.GetSetting(entities.SettingRegion)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return regions.Global, nil
	}
	if err != nil {
		return "", err
	}

	region := regions.Region(setting.Value)
	if _, err := regions.Resolve(region); err != nil {
		return "", err
	}
	return region, nil
}

// SetRegion validates and stores the Amazon region.
func (r *Repository) SetRegion(region regions.Region) error {
	if _, err := regions.Resolve(region); err != nil {
		return err
	}
	return r.SetSetting(entities.SettingRegion, string(region))
}

// LastSync returns the completion time of the last successful sync, or nil
// when no sync ever completed.
func (r *Repository) LastSync() (*time.Time, error) {
	setting, err := r.GetSetting(entities.SettingLastSync)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, setting.Value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SetLastSync records the completion time of a successful sync.
func (r *Repository) SetLastSync(t time.Time) error {
	return r.SetSetting(entities.SettingLastSync, t.UTC().Format(time.RFC3339))
}
