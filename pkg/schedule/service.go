package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/event_bus"
	"github.com/klokku/flextime/pkg/credential"
	log "github.com/sirupsen/logrus"
)

// Commit is one settings change. Password is only written when non-nil.
type Commit struct {
	Settings config.Settings
	Password *string
}

type Service interface {
	Current() WeekSchedule
	Settings() config.Settings
	// Commit validates and persists new settings, then swaps in the schedule built from them.
	Commit(ctx context.Context, commit Commit) error
}

type ServiceImpl struct {
	mu           sync.RWMutex
	settingsPath string
	settings     config.Settings
	week         WeekSchedule
	credentials  credential.Store
	eventBus     *event_bus.EventBus
}

func NewService(settingsPath string, settings config.Settings, credentials credential.Store, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		settingsPath: settingsPath,
		settings:     settings,
		week:         FromSettings(settings),
		credentials:  credentials,
		eventBus:     eventBus,
	}
}

func (s *ServiceImpl) Current() WeekSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.week
}

func (s *ServiceImpl) Settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	settings.Hours = append([]int(nil), s.settings.Hours...)
	return settings
}

func (s *ServiceImpl) Commit(ctx context.Context, commit Commit) error {
	next := commit.Settings
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	previous := s.settings
	if err := config.SaveSettings(s.settingsPath, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = next
	s.week = FromSettings(next)
	s.mu.Unlock()

	uidChanged := previous.UID != next.UID
	if uidChanged && previous.UID != "" {
		if err := s.credentials.Delete(previous.UID); err != nil && !errors.Is(err, credential.ErrNotFound) {
			log.Errorf("failed to remove stored secret of previous user %s: %v", previous.UID, err)
		}
	}
	if commit.Password != nil && next.UID != "" {
		if err := s.credentials.Set(next.UID, *commit.Password); err != nil {
			return fmt.Errorf("settings saved but the password could not be stored: %w", err)
		}
	}

	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.SettingsCommitted, event_bus.SettingsCommittedEvent{
		UID:        next.UID,
		UIDChanged: uidChanged,
	}))
	if err != nil {
		log.Errorf("failed to publish settings committed event: %v", err)
	}
	log.Infof("Settings committed")
	return nil
}
