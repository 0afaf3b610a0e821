package repository

import (
	"context"
	"errors"

	"github.com/invoicestash/invoicestash/internal/domain"
	"gorm.io/gorm"
)

// SettingsRepository handles the single persisted settings row.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SettingsRepository: repository instance bound to db.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the settings row, seeding defaults when none exists yet.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.Settings: current settings.
//   - error: non-nil if the lookup or seed fails.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = domain.Settings{
			FileNameFormat: domain.DefaultFileNameFormat,
			DateFormat:     domain.DefaultDateFormat,
		}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	// Backfill fields added after the row was first created.
	changed := false
	if settings.FileNameFormat == "" {
		settings.FileNameFormat = domain.DefaultFileNameFormat
		changed = true
	}
	if settings.DateFormat == "" {
		settings.DateFormat = domain.DefaultDateFormat
		changed = true
	}
	if changed {
		if err := r.db.WithContext(ctx).Save(&settings).Error; err != nil {
			return nil, err
		}
	}
	return &settings, nil
}

// Update saves the settings row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - settings: settings with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *SettingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
