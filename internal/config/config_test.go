package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)

		assert.Equal(t, "settings.json", cfg.SettingsFile)
		assert.Equal(t, "workpackages.json", cfg.WorkPackagesFile)
		assert.Equal(t, 5*time.Second, cfg.Tracker.Timeout)
		assert.Equal(t, BasicAuth, cfg.Tracker.Auth)
		assert.Equal(t, "jiraconnection", cfg.Tracker.KeyringService)
		assert.Equal(t, 60, cfg.Autosave.Ticks)
	})

	t.Run("file and env override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "application.yaml")
		content := "datadir: " + dir + "\ntracker:\n  timeout: 2s\n  auth: token\nautosave:\n  ticks: 30\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv("FLEXTIME_SERVER_ADDR", "127.0.0.1:9999")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.DataDir)
		assert.Equal(t, 2*time.Second, cfg.Tracker.Timeout)
		assert.Equal(t, TokenAuth, cfg.Tracker.Auth)
		assert.Equal(t, 30, cfg.Autosave.Ticks)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
		assert.Equal(t, filepath.Join(dir, "settings.json"), cfg.Resolve(cfg.SettingsFile))
		assert.Equal(t, "/abs/file.json", cfg.Resolve("/abs/file.json"))
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("missing file yields defaults without error", func(t *testing.T) {
		settings, err := LoadSettings(filepath.Join(t.TempDir(), "settings.json"))
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), settings)
		assert.Equal(t, []int{0, 495, 495, 495, 495, 330, 0, 0}, settings.Hours)
	})

	t.Run("absent keys fall back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"lunchBreak": 45, "uid": "jdoe", "url": "https://jira.example.com/"}`), 0o644))

		settings, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, 45, settings.LunchBreak)
		assert.Equal(t, "jdoe", settings.UID)
		assert.Equal(t, "https://jira.example.com", settings.URL)
		assert.True(t, settings.ForecastEndTimes)
		assert.Equal(t, DefaultSettings().Hours, settings.Hours)
	})

	t.Run("corrupt file falls back to defaults with a soft error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"lunchBreak": `), 0o644))

		settings, err := LoadSettings(path)
		require.ErrorIs(t, err, ErrConfigLoad)
		assert.Equal(t, DefaultSettings(), settings)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"officePercentage": 140}`), 0o644))

		settings, err := LoadSettings(path)
		require.ErrorIs(t, err, ErrConfigLoad)
		assert.Equal(t, 40, settings.OfficePercentage)
	})
}

func TestSaveSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	settings := DefaultSettings()
	settings.Hours = []int{0, 480, 480, 480, 480, 480, 0, 0}
	settings.LunchBreak = 60
	settings.UID = "jdoe"
	settings.DailyOfficePercentage = 40

	require.NoError(t, SaveSettings(path, settings))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"wrong number of weekdays", func(s *Settings) { s.Hours = []int{495, 495} }, true},
		{"planned minutes beyond a day", func(s *Settings) { s.Hours[1] = 1500 }, true},
		{"negative lunch", func(s *Settings) { s.LunchBreak = -1 }, true},
		{"bad url", func(s *Settings) { s.URL = "not a url" }, true},
		{"unknown work package location", func(s *Settings) { s.WPLocation = 3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
