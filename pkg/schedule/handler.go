package schedule

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type SettingsDTO struct {
	Hours                         []int  `json:"hours"`
	LunchBreak                    int    `json:"lunchBreak"`
	ConnectHoursAndMinutes        bool   `json:"connectHoursAndMinutes"`
	ForecastEndTimes              bool   `json:"forecastEndTimes"`
	Minimize                      bool   `json:"minimize"`
	OfficePercentage              int    `json:"officePercentage"`
	DailyOfficePercentageAutoCalc bool   `json:"dailyOfficePercentageAutoCalc"`
	DailyOfficePercentage         int    `json:"dailyOfficePercentage"`
	URL                           string `json:"url"`
	UID                           string `json:"uid"`
	WPLocation                    int    `json:"wpLocation"`
	WPActive                      bool   `json:"wpActive"`
	// Password is write-only, it is stored in the credential store and never returned.
	Password *string `json:"password,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetSettings godoc
// @Summary Get the current settings
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsDTO
// @Router /api/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting settings")
	rest.WriteJSON(w, http.StatusOK, settingsToDTO(h.service.Settings()))
}

// UpdateSettings godoc
// @Summary Replace the settings
// @Description A changed uid removes the stored password of the previous user.
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body SettingsDTO true "Settings"
// @Success 200 {object} SettingsDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid settings"
// @Router /api/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating settings")
	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	err := h.service.Commit(r.Context(), Commit{Settings: dtoToSettings(dto), Password: dto.Password})
	if err != nil {
		if errors.Is(err, config.ErrInvalidSettings) {
			rest.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Errorf("Failed to commit settings: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	rest.WriteJSON(w, http.StatusOK, settingsToDTO(h.service.Settings()))
}

func settingsToDTO(s config.Settings) SettingsDTO {
	return SettingsDTO{
		Hours:                         s.Hours,
		LunchBreak:                    s.LunchBreak,
		ConnectHoursAndMinutes:        s.ConnectHoursAndMinutes,
		ForecastEndTimes:              s.ForecastEndTimes,
		Minimize:                      s.Minimize,
		OfficePercentage:              s.OfficePercentage,
		DailyOfficePercentageAutoCalc: s.DailyOfficePercentageAutoCalc,
		DailyOfficePercentage:         s.DailyOfficePercentage,
		URL:                           s.URL,
		UID:                           s.UID,
		WPLocation:                    int(s.WPLocation),
		WPActive:                      s.WPActive,
	}
}

func dtoToSettings(dto SettingsDTO) config.Settings {
	return config.Settings{
		Hours:                         dto.Hours,
		LunchBreak:                    dto.LunchBreak,
		ConnectHoursAndMinutes:        dto.ConnectHoursAndMinutes,
		ForecastEndTimes:              dto.ForecastEndTimes,
		Minimize:                      dto.Minimize,
		OfficePercentage:              dto.OfficePercentage,
		DailyOfficePercentageAutoCalc: dto.DailyOfficePercentageAutoCalc,
		DailyOfficePercentage:         dto.DailyOfficePercentage,
		URL:                           dto.URL,
		UID:                           dto.UID,
		WPLocation:                    config.WorkPackageLocation(dto.WPLocation),
		WPActive:                      dto.WPActive,
	}
}
