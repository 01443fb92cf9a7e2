package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	DataDir          string   `koanf:"datadir"`
	SettingsFile     string   `koanf:"settingsfile"`
	WorkPackagesFile string   `koanf:"workpackagesfile"`
	Database         Database `koanf:"db"`
	Server           Server   `koanf:"server"`
	Tracker          Tracker  `koanf:"tracker"`
	Autosave         Autosave `koanf:"autosave"`
}

type Database struct {
	Path string `koanf:"path"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type TrackerAuth string

const (
	BasicAuth TrackerAuth = "basic"
	TokenAuth TrackerAuth = "token"
)

type Tracker struct {
	Timeout        time.Duration `koanf:"timeout"`
	Auth           TrackerAuth   `koanf:"auth"`
	KeyringService string        `koanf:"keyringservice"`
}

type Autosave struct {
	Ticks int `koanf:"ticks"`
}

// Resolve turns a file name from the config into a path under DataDir. Absolute paths are kept.
func (a Application) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.DataDir, name)
}

func (a Application) MonthDir() string {
	return filepath.Join(a.DataDir, "data")
}

func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "application.yaml"
	}
	return filepath.Join(dir, "flextime", "application.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flextime"
	}
	return filepath.Join(home, ".flextime")
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		DataDir:          defaultDataDir(),
		SettingsFile:     "settings.json",
		WorkPackagesFile: "workpackages.json",
		Database: Database{
			Path: "flextime.db",
		},
		Server: Server{
			Addr: "127.0.0.1:8282",
		},
		Tracker: Tracker{
			Timeout:        5 * time.Second,
			Auth:           BasicAuth,
			KeyringService: "jiraconnection",
		},
		Autosave: Autosave{
			Ticks: 60,
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "FLEXTIME_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "FLEXTIME_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if app.Autosave.Ticks <= 0 {
		app.Autosave.Ticks = 60
	}

	return app, nil
}
