package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/internal/scheduling"
	"spa_backend/pkg/utils"
)

// UpsertSettingRequest DTO
type UpsertSettingRequest struct {
	Value       *string `json:"setting_value"`
	Description *string `json:"description"`
}

// SettingService manages application settings.
type SettingService interface {
	ListSettings(ctx context.Context) ([]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, key string, req UpsertSettingRequest) (*models.ApplicationSetting, error)
	DeleteSetting(ctx context.Context, key string) error
	SlotGrid(ctx context.Context) scheduling.SlotGrid
}

type settingService struct {
	repo repositories.SettingRepository
	db   repositories.SQLExecutor
}

// NewSettingService creates a new instance of SettingService.
func NewSettingService(repo repositories.SettingRepository, db repositories.SQLExecutor) SettingService {
	return &settingService{repo: repo, db: db}
}

func (s *settingService) ListSettings(ctx context.Context) ([]models.ApplicationSetting, error) {
	return s.repo.ListSettings(ctx)
}

func (s *settingService) GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	st, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return st, nil
}

// validateSetting rejects values the slot grid could not use.
func validateSetting(key string, value *string) error {
	switch key {
	case models.SettingSlotOpen, models.SettingSlotClose:
		if value == nil {
			return validationf("%s requires a value", key)
		}
		if _, _, err := scheduling.ParseClock(*value); err != nil {
			return validationf("%s: %v", key, err)
		}
	case models.SettingSlotStepMinutes:
		if value == nil {
			return validationf("%s requires a value", key)
		}
		n, err := strconv.Atoi(strings.TrimSpace(*value))
		if err != nil || n <= 0 || n > 24*60 {
			return validationf("%s must be a positive number of minutes", key)
		}
	}
	return nil
}

func (s *settingService) UpsertSetting(ctx context.Context, key string, req UpsertSettingRequest) (*models.ApplicationSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validationf("setting key is required")
	}
	if err := validateSetting(key, req.Value); err != nil {
		return nil, err
	}
	st := &models.ApplicationSetting{SettingKey: key, SettingValue: req.Value, Description: req.Description}
	if err := s.repo.UpsertSetting(ctx, s.db, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *settingService) DeleteSetting(ctx context.Context, key string) error {
	if err := s.repo.DeleteSetting(ctx, s.db, key); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSettingNotFound
		}
		return err
	}
	return nil
}

// SlotGrid reads the bookable-slot settings, falling back to the default grid per missing or bad value.
func (s *settingService) SlotGrid(ctx context.Context) scheduling.SlotGrid {
	grid := scheduling.DefaultSlotGrid
	if v, ok := s.value(ctx, models.SettingSlotOpen); ok {
		if _, _, err := scheduling.ParseClock(v); err == nil {
			grid.Open = v
		} else {
			utils.LogWarn("invalid slot_open setting, using default", map[string]interface{}{"value": v})
		}
	}
	if v, ok := s.value(ctx, models.SettingSlotClose); ok {
		if _, _, err := scheduling.ParseClock(v); err == nil {
			grid.Close = v
		} else {
			utils.LogWarn("invalid slot_close setting, using default", map[string]interface{}{"value": v})
		}
	}
	if v, ok := s.value(ctx, models.SettingSlotStepMinutes); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			grid.Step = time.Duration(n) * time.Minute
		} else {
			utils.LogWarn("invalid slot_step_minutes setting, using default", map[string]interface{}{"value": v})
		}
	}
	return grid
}

func (s *settingService) value(ctx context.Context, key string) (string, bool) {
	st, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			utils.LogError(err, "SlotGrid: reading setting", map[string]interface{}{"key": key})
		}
		return "", false
	}
	if st.SettingValue == nil || strings.TrimSpace(*st.SettingValue) == "" {
		return "", false
	}
	return strings.TrimSpace(*st.SettingValue), true
}
