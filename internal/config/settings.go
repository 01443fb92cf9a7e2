package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/klokku/flextime/internal/utils"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

var ErrConfigLoad = errors.New("failed to load configuration")
var ErrInvalidSettings = errors.New("invalid settings")

// WorkPackageLocation is where the work package list is shown next to the month grid.
type WorkPackageLocation int

const (
	WorkPackagesLeft WorkPackageLocation = iota
	WorkPackagesRight
	WorkPackagesPopup
)

// Settings is the user-editable settings file. Hours holds the planned minutes per
// weekday: index 0 is unused, 1 is Monday and 7 is Sunday.
type Settings struct {
	Hours                         []int               `koanf:"hours" validate:"len=8,dive,min=0,max=1440"`
	LunchBreak                    int                 `koanf:"lunchBreak" validate:"min=0,max=1440"`
	ConnectHoursAndMinutes        bool                `koanf:"connectHoursAndMinutes"`
	ForecastEndTimes              bool                `koanf:"forecastEndTimes"`
	Minimize                      bool                `koanf:"minimize"`
	OfficePercentage              int                 `koanf:"officePercentage" validate:"min=0,max=100"`
	DailyOfficePercentageAutoCalc bool                `koanf:"dailyOfficePercentageAutoCalc"`
	DailyOfficePercentage         int                 `koanf:"dailyOfficePercentage" validate:"min=0,max=100"`
	URL                           string              `koanf:"url" validate:"omitempty,url"`
	UID                           string              `koanf:"uid"`
	WPLocation                    WorkPackageLocation `koanf:"wpLocation" validate:"min=0,max=2"`
	WPActive                      bool                `koanf:"wpActive"`
}

func DefaultSettings() Settings {
	const fullDay = 8*60 + 15
	const friday = 5*60 + 30
	return Settings{
		Hours:                         []int{0, fullDay, fullDay, fullDay, fullDay, friday, 0, 0},
		LunchBreak:                    30,
		ConnectHoursAndMinutes:        false,
		ForecastEndTimes:              true,
		Minimize:                      true,
		OfficePercentage:              40,
		DailyOfficePercentageAutoCalc: true,
		DailyOfficePercentage:         0,
		URL:                           "",
		UID:                           "",
		WPLocation:                    WorkPackagesPopup,
		WPActive:                      false,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// LoadSettings reads the settings file over the built-in defaults. A missing file is not
// an error. A corrupt or invalid file is logged and the defaults are returned together
// with ErrConfigLoad so callers can tell the user without failing.
func LoadSettings(path string) (Settings, error) {
	defaults := DefaultSettings()
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		log.Errorf("error loading settings defaults: %v", err)
		return defaults, fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}

	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Settings file not found at %s, using defaults", path)
			return defaults, nil
		}
		log.Errorf("Using default settings, could not load %s: %v", path, err)
		return defaults, fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		log.Errorf("Using default settings, could not decode %s: %v", path, err)
		return defaults, fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}
	if err := settings.Validate(); err != nil {
		log.Errorf("Using default settings, %s is invalid: %v", path, err)
		return defaults, fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}
	settings.URL = strings.TrimRight(settings.URL, "/")

	log.Debugf("Loaded settings from %s", path)
	return settings, nil
}

func SaveSettings(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.URL = strings.TrimRight(settings.URL, "/")

	var k = koanf.New(".")
	if err := k.Load(structs.Provider(settings, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to prepare settings: %w", err)
	}
	data, err := k.Marshal(json.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		log.Errorf("failed to write settings to %s: %v", path, err)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	log.Infof("Saved settings to %s", path)
	return nil
}
