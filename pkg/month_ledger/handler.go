package month_ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/rest"
	"github.com/klokku/flextime/pkg/day"
	"github.com/klokku/flextime/pkg/timeofday"
	log "github.com/sirupsen/logrus"
)

type IntervalDTO struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Activity int    `json:"activity"`
}

type DayDTO struct {
	Day            int           `json:"day"`
	Date           string        `json:"date"`
	Weekday        string        `json:"weekday"`
	Status         string        `json:"status"`
	PlannedMinutes int           `json:"plannedMinutes"`
	Start          string        `json:"start"`
	End            string        `json:"end"`
	Vacation       bool          `json:"vacation"`
	ZA             bool          `json:"za"`
	LunchBreak     bool          `json:"lunchBreak"`
	HomeOffice     bool          `json:"homeOffice"`
	Locked         bool          `json:"locked"`
	Detail         []IntervalDTO `json:"detail,omitempty"`
	Skipped        bool          `json:"skipped"`
	Excluded       bool          `json:"excluded"`
	Forecast       bool          `json:"forecast"`
	WorkedSeconds  int           `json:"workedSeconds"`
	DiffSeconds    int           `json:"diffSeconds"`
	FlexSeconds    int           `json:"flexSeconds"`
	Worked         string        `json:"worked,omitempty"`
	Diff           string        `json:"diff,omitempty"`
	Overtime       bool          `json:"overtime"`
}

type MonthDTO struct {
	Year                 int      `json:"year"`
	Month                int      `json:"month"`
	Label                string   `json:"label"`
	Days                 []DayDTO `json:"days"`
	TotalWorkedSeconds   int      `json:"totalWorkedSeconds"`
	TotalPlannedSeconds  int      `json:"totalPlannedSeconds"`
	FlexBalanceSeconds   int      `json:"flexBalanceSeconds"`
	OnSitePercentage     float64  `json:"onSitePercentage"`
	OnSiteBelowThreshold bool     `json:"onSiteBelowThreshold"`
	Total                string   `json:"total"`
	Balance              string   `json:"balance"`
}

// DayUpdateDTO changes the fields that are present. Detail replaces the whole breakdown,
// an empty list clears it.
type DayUpdateDTO struct {
	Start      *string        `json:"start,omitempty"`
	End        *string        `json:"end,omitempty"`
	Vacation   *bool          `json:"vacation,omitempty"`
	ZA         *bool          `json:"za,omitempty"`
	LunchBreak *bool          `json:"lunchBreak,omitempty"`
	HomeOffice *bool          `json:"homeOffice,omitempty"`
	Detail     *[]IntervalDTO `json:"detail,omitempty"`
}

type Renderer interface {
	Render(summary Summary) (string, error)
}

type Handler struct {
	service  Service
	renderer Renderer
}

func NewHandler(service Service, renderer Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// GetMonth godoc
// @Summary Get a month with computed totals
// @Tags Month
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Success 200 {object} MonthDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid month"
// @Router /api/month/{year}/{month} [get]
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting month")
	if !h.switchTo(w, r) {
		return
	}
	rest.WriteJSON(w, http.StatusOK, summaryToDTO(h.service.Summary()))
}

// UpdateDay godoc
// @Summary Update one day of a month
// @Tags Month
// @Accept json
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param day path int true "Day of month"
// @Param update body DayUpdateDTO true "Fields to change"
// @Success 200 {object} DayDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request or detail breakdown"
// @Failure 404 {object} rest.ErrorResponse "Day not in month"
// @Failure 409 {object} rest.ErrorResponse "Day times are not editable"
// @Router /api/month/{year}/{month}/days/{day} [put]
func (h *Handler) UpdateDay(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating day")
	var update DayUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	index, ok := dayIndex(w, r)
	if !ok || !h.switchTo(w, r) {
		return
	}

	var detail *[day.DetailSlots]day.Interval
	if update.Detail != nil {
		intervals, err := dtoToIntervals(*update.Detail)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		detail = &intervals
	}

	_, err := h.service.EditDay(r.Context(), index, detail, func(record *day.Record) error {
		return applyUpdate(record, update)
	})
	if err != nil {
		writeDayError(w, err)
		return
	}
	h.writeDay(w, index)
}

// StampDay godoc
// @Summary Write the current time into the day's start or end time
// @Tags Month
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param day path int true "Day of month"
// @Success 200 {object} DayDTO
// @Failure 404 {object} rest.ErrorResponse "Day not in month"
// @Failure 409 {object} rest.ErrorResponse "Day times are not editable"
// @Router /api/month/{year}/{month}/days/{day}/stamp [post]
func (h *Handler) StampDay(w http.ResponseWriter, r *http.Request) {
	log.Debug("Stamping day")
	index, ok := dayIndex(w, r)
	if !ok || !h.switchTo(w, r) {
		return
	}
	if _, err := h.service.StampDay(r.Context(), index); err != nil {
		writeDayError(w, err)
		return
	}
	h.writeDay(w, index)
}

// ExportCsv godoc
// @Summary Export a month as CSV
// @Tags Month
// @Produce text/csv
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Success 200 {string} string "CSV"
// @Router /api/month/{year}/{month}/export.csv [get]
func (h *Handler) ExportCsv(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting month")
	if !h.switchTo(w, r) {
		return
	}
	summary := h.service.Summary()
	csvData, err := h.renderer.Render(summary)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", summary.Label+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csvData)); err != nil {
		log.Errorf("failed to write csv response: %v", err)
	}
}

func (h *Handler) writeDay(w http.ResponseWriter, index int) {
	summary := h.service.Summary()
	if index >= len(summary.Days) {
		rest.WriteError(w, http.StatusNotFound, ErrDayOutOfRange.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, dayToDTO(summary.Days[index]))
}

// switchTo makes the month in the path the active one. It writes the error response itself.
func (h *Handler) switchTo(w http.ResponseWriter, r *http.Request) bool {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year")
		return false
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid month")
		return false
	}
	if err := h.service.SwitchMonth(r.Context(), year, time.Month(month)); err != nil {
		if errors.Is(err, ErrConfigLoad) {
			log.Warnf("Serving defaults: %v", err)
			return true
		}
		rest.WriteError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	return true
}

func dayIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	dayOfMonth, err := strconv.Atoi(mux.Vars(r)["day"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid day")
		return 0, false
	}
	return dayOfMonth - 1, true
}

func writeDayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDayOutOfRange):
		rest.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, day.ErrNotEditable):
		rest.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, timeofday.ErrInvalidTime), errors.Is(err, day.ErrInvalidDetail):
		rest.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		rest.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func applyUpdate(record *day.Record, update DayUpdateDTO) error {
	if update.Vacation != nil {
		record.SetVacation(*update.Vacation)
	}
	if update.ZA != nil {
		record.SetZA(*update.ZA)
	}
	if update.LunchBreak != nil {
		record.LunchBreak = *update.LunchBreak
	}
	if update.HomeOffice != nil {
		record.HomeOffice = *update.HomeOffice
	}
	if update.Start != nil {
		start, err := timeofday.Parse(*update.Start)
		if err != nil {
			return err
		}
		if err := record.SetStart(start); err != nil {
			return err
		}
	}
	if update.End != nil {
		end, err := timeofday.Parse(*update.End)
		if err != nil {
			return err
		}
		if err := record.SetEnd(end); err != nil {
			return err
		}
	}
	return nil
}

func dtoToIntervals(dtos []IntervalDTO) ([day.DetailSlots]day.Interval, error) {
	var intervals [day.DetailSlots]day.Interval
	if len(dtos) > day.DetailSlots {
		return intervals, fmt.Errorf("at most %d intervals are allowed", day.DetailSlots)
	}
	for i, dto := range dtos {
		start, err := timeofday.Parse(dto.Start)
		if err != nil {
			return intervals, err
		}
		end, err := timeofday.Parse(dto.End)
		if err != nil {
			return intervals, err
		}
		activity := day.ActivityType(dto.Activity)
		if !activity.Valid() {
			return intervals, fmt.Errorf("interval %d: unknown activity %d", i+1, dto.Activity)
		}
		intervals[i] = day.Interval{Start: start, End: end, Activity: activity}
	}
	return intervals, nil
}

func formatTime(t timeofday.TimeOfDay) string {
	if t.IsUnset() {
		return ""
	}
	return t.String()
}

func dayToDTO(view DayView) DayDTO {
	record := view.Record
	result := view.Result
	dto := DayDTO{
		Day:            view.Index + 1,
		Date:           view.Date.Format("2006-01-02"),
		Weekday:        view.Date.Weekday().String(),
		Status:         view.Status.String(),
		PlannedMinutes: view.Schedule.PlannedMinutes,
		Start:          formatTime(record.EffectiveStart()),
		End:            formatTime(result.EffectiveEnd),
		Vacation:       record.Vacation,
		ZA:             record.ZA,
		LunchBreak:     record.LunchBreak,
		HomeOffice:     record.HomeOffice,
		Locked:         record.IsLocked(),
		Skipped:        result.Skipped,
		Excluded:       result.Excluded,
		Forecast:       result.ForecastApplied,
		WorkedSeconds:  result.WorkedSeconds,
		DiffSeconds:    result.DiffSeconds,
		FlexSeconds:    result.FlexContributionSeconds,
		Worked:         result.WorkedText,
		Diff:           result.DiffText,
		Overtime:       result.Overtime,
	}
	if !result.Computed() {
		dto.End = formatTime(record.EffectiveEnd())
	}
	for _, interval := range record.Detail.Intervals {
		if interval.Seconds() == 0 && interval.Start.IsUnset() {
			continue
		}
		dto.Detail = append(dto.Detail, IntervalDTO{
			Start:    formatTime(interval.Start),
			End:      formatTime(interval.End),
			Activity: int(interval.Activity),
		})
	}
	return dto
}

func summaryToDTO(summary Summary) MonthDTO {
	days := make([]DayDTO, 0, len(summary.Days))
	for _, view := range summary.Days {
		days = append(days, dayToDTO(view))
	}
	return MonthDTO{
		Year:                 summary.Year,
		Month:                int(summary.Month),
		Label:                summary.Label,
		Days:                 days,
		TotalWorkedSeconds:   summary.TotalWorkedSeconds,
		TotalPlannedSeconds:  summary.TotalPlannedSeconds,
		FlexBalanceSeconds:   summary.FlexBalanceSeconds,
		OnSitePercentage:     summary.OnSitePercentage,
		OnSiteBelowThreshold: summary.OnSiteBelowThreshold,
		Total:                summary.TotalText,
		Balance:              summary.BalanceText,
	}
}
