package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

// SettingsService keeps the settings snapshot loaded at startup and persists
// every accepted change before publishing it.
type SettingsService struct {
	store   ports.SettingsStore
	current atomic.Pointer[domain.Settings]
}

func LoadSettingsService(ctx context.Context, store ports.SettingsStore) (*SettingsService, error) {
	settings, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	svc := &SettingsService{store: store}
	settings = settings.Normalize()
	svc.current.Store(&settings)
	return svc, nil
}

func (s *SettingsService) Current() domain.Settings {
	if current := s.current.Load(); current != nil {
		return *current
	}
	return domain.DefaultSettings()
}

func (s *SettingsService) Update(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	if err := s.store.Save(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.current.Store(&settings)
	return settings, nil
}

// StaticSettings serves a fixed snapshot.
type StaticSettings domain.Settings

func (s StaticSettings) Current() domain.Settings {
	return domain.Settings(s).Normalize()
}
