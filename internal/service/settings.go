package service

import (
	"context"

	"github.com/invoicestash/invoicestash/internal/domain"
	"github.com/invoicestash/invoicestash/internal/logger"
	"github.com/invoicestash/invoicestash/internal/repository"
)

// SettingsService reads and writes the single settings row and applies the
// debug-mode toggle to the running logger.
type SettingsService struct {
	settings *repository.SettingsRepository
	logger   *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings *repository.SettingsRepository, log *logger.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: log}
}

// Get returns the current settings, seeding defaults on first call.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.settings.Get(ctx)
}

// SettingsInput carries the mutable settings fields.
type SettingsInput struct {
	FileNameFormat string `json:"file_name_format"`
	DateFormat     string `json:"date_format"`
	DebugMode      bool   `json:"debug_mode"`
	LicenseKey     string `json:"license_key"`
}

// Update persists new settings and switches the logger's debug level to match.
// Parameters:
//   - ctx: context for cancellation.
//   - input: updated fields; empty template fields fall back to defaults.
// Returns:
//   - *domain.Settings: the persisted settings.
//   - error: non-nil on persistence failure.
func (s *SettingsService) Update(ctx context.Context, input *SettingsInput) (*domain.Settings, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	current.FileNameFormat = input.FileNameFormat
	if current.FileNameFormat == "" {
		current.FileNameFormat = domain.DefaultFileNameFormat
	}
	current.DateFormat = input.DateFormat
	if current.DateFormat == "" {
		current.DateFormat = domain.DefaultDateFormat
	}
	current.DebugMode = input.DebugMode
	current.LicenseKey = input.LicenseKey

	if err := s.settings.Update(ctx, current); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.SetDebugMode(current.DebugMode)
	}

	return current, nil
}
