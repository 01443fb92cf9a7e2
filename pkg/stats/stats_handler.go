package stats

import (
	"errors"
	"net/http"
	"time"

	"github.com/klokku/flextime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type TicketStatsDTO struct {
	Ticket       string   `json:"ticket"`
	WorkPackages []string `json:"workPackages"`
	Duration     int      `json:"duration"`
	Posts        int      `json:"posts"`
}

type DailyStatsDTO struct {
	Date      time.Time        `json:"date"`
	Tickets   []TicketStatsDTO `json:"tickets"`
	TotalTime int              `json:"totalTime"`
}

type StatsSummaryDTO struct {
	StartDate   time.Time        `json:"startDate"`
	EndDate     time.Time        `json:"endDate"`
	Days        []DailyStatsDTO  `json:"days"`
	Tickets     []TicketStatsDTO `json:"tickets"`
	TotalTime   int              `json:"totalTime"`
	FailedPosts int              `json:"failedPosts"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer}
}

// GetStats godoc
// @Summary Get booked worklog time
// @Description Sums successful worklog posts per day and per ticket. Send Accept: text/csv for a CSV table.
// @Tags Stats
// @Produce json
// @Produce text/csv
// @Param fromDate query string true "Start of the range, RFC3339"
// @Param toDate query string true "End of the range, RFC3339"
// @Success 200 {object} StatsSummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/stats [get]
func (handler *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	fromDate, err := time.Parse(time.RFC3339, r.URL.Query().Get("fromDate"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid fromDate format", "fromDate must be in RFC3339 format")
		return
	}
	toDate, err := time.Parse(time.RFC3339, r.URL.Query().Get("toDate"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid toDate format", "toDate must be in RFC3339 format")
		return
	}
	stats, err := handler.statsService.GetStats(r.Context(), fromDate, toDate)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			rest.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderStats(stats)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write stats csv: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, convertToJsonResponse(stats))
}

func convertToJsonResponse(stats StatsSummary) StatsSummaryDTO {
	days := make([]DailyStatsDTO, 0, len(stats.Days))
	for _, day := range stats.Days {
		days = append(days, DailyStatsDTO{
			Date:      day.Date,
			Tickets:   ticketsToDTO(day.Tickets),
			TotalTime: int(day.TotalTime.Seconds()),
		})
	}
	return StatsSummaryDTO{
		StartDate:   stats.StartDate,
		EndDate:     stats.EndDate,
		Days:        days,
		Tickets:     ticketsToDTO(stats.Tickets),
		TotalTime:   int(stats.TotalTime.Seconds()),
		FailedPosts: stats.FailedPosts,
	}
}

func ticketsToDTO(tickets []TicketStats) []TicketStatsDTO {
	dtos := make([]TicketStatsDTO, 0, len(tickets))
	for _, ticket := range tickets {
		workPackages := ticket.WorkPackages
		if workPackages == nil {
			workPackages = []string{}
		}
		dtos = append(dtos, TicketStatsDTO{
			Ticket:       ticket.Ticket,
			WorkPackages: workPackages,
			Duration:     int(ticket.Duration.Seconds()),
			Posts:        ticket.Posts,
		})
	}
	return dtos
}
