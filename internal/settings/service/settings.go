package service

import (
	"context"
	"errors"

	settingserrors "cyclecount/internal/settings/errors"
	"cyclecount/internal/settings/repository"
	"cyclecount/pkg/config"
	apperrors "cyclecount/pkg/errors"
	"cyclecount/pkg/i18n"
	"cyclecount/pkg/model"
	"cyclecount/pkg/roster"
	"cyclecount/pkg/sanitizer"
)

type SettingsService interface {
	Get(ctx context.Context, userName string) (*model.UserSettings, error)
	Update(ctx context.Context, userName string, updates *model.UserSettingsUpdate) (*model.UserSettings, error)
	Translations(lang string) (map[string]string, error)
}

type settingsService struct {
	repo repository.SettingsRepository
	cfg  *config.Config
}

func NewSettingsService(repo repository.SettingsRepository, cfg *config.Config) SettingsService {
	return &settingsService{
		repo: repo,
		cfg:  cfg,
	}
}

// Get returns stored settings, or the defaults for a counter who never
// saved any. Defaults are not persisted until the first update.
func (s *settingsService) Get(ctx context.Context, userName string) (*model.UserSettings, error) {
	name, err := s.canonicalName(userName)
	if err != nil {
		return nil, err
	}

	settings, err := s.repo.Find(ctx, name)
	if err != nil {
		if errors.Is(err, settingserrors.ErrNotFound) {
			return s.defaults(name), nil
		}
		return nil, apperrors.Internal("Failed to load user settings", err)
	}

	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, userName string, updates *model.UserSettingsUpdate) (*model.UserSettings, error) {
	name, err := s.canonicalName(userName)
	if err != nil {
		return nil, err
	}

	if updates.Language != "" && !i18n.IsSupported(updates.Language) {
		return nil, apperrors.Validation("Unsupported language", map[string]any{
			"language":  updates.Language,
			"supported": i18n.Languages(),
		})
	}
	if updates.Timezone != "" && !i18n.ValidTimezone(updates.Timezone) {
		return nil, apperrors.Validation("Unknown timezone", map[string]any{
			"timezone": updates.Timezone,
		})
	}

	current, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	merged := s.merge(current, updates)
	if err := s.repo.Upsert(ctx, merged); err != nil {
		s.cfg.Log.Error("Failed to save user settings", "user", name, "error", err)
		return nil, apperrors.Internal("Failed to save user settings", err)
	}

	s.cfg.Log.Info("User settings updated",
		"user", name,
		"language", merged.Language,
		"sound_on", merged.SoundOn,
		"vibration_on", merged.VibrationOn,
	)
	return merged, nil
}

// Translations returns the UI catalog for a language.
func (s *settingsService) Translations(lang string) (map[string]string, error) {
	if !i18n.IsSupported(lang) {
		return nil, apperrors.InvalidInput("Unsupported language: " + lang)
	}
	return i18n.Catalog(lang), nil
}

func (s *settingsService) canonicalName(userName string) (string, error) {
	name := roster.Canonical(sanitizer.SanitizeName(userName))
	if !roster.IsCounter(name) {
		return "", apperrors.InvalidInput("Unknown counter: " + userName)
	}
	return name, nil
}

func (s *settingsService) defaults(name string) *model.UserSettings {
	return &model.UserSettings{
		UserName:    name,
		Language:    s.cfg.DefaultLanguage,
		SoundOn:     true,
		VibrationOn: true,
		Timezone:    s.cfg.DefaultTimezone,
	}
}

func (s *settingsService) merge(current *model.UserSettings, updates *model.UserSettingsUpdate) *model.UserSettings {
	merged := *current

	if updates.Language != "" {
		merged.Language = updates.Language
	}
	if updates.SoundOn != nil {
		merged.SoundOn = *updates.SoundOn
	}
	if updates.VibrationOn != nil {
		merged.VibrationOn = *updates.VibrationOn
	}
	if updates.Timezone != "" {
		merged.Timezone = updates.Timezone
	}

	return &merged
}
