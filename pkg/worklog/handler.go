package worklog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/rest"
	"github.com/klokku/flextime/pkg/issue_tracker"
	"github.com/klokku/flextime/pkg/work_package"
	log "github.com/sirupsen/logrus"
)

type WorklogDTO struct {
	Id          string `json:"id"`
	WorkPackage string `json:"workPackage"`
	Ticket      string `json:"ticket"`
	Seconds     int    `json:"seconds"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Submit godoc
// @Summary Book the tracked time of a work package on its ticket
// @Description The post is abandoned when the client goes away. Booked time is taken off the work package.
// @Tags Worklog
// @Produce json
// @Param name path string true "Work package name"
// @Success 200 {object} WorklogDTO
// @Failure 400 {object} rest.ErrorResponse "Nothing to log"
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Failure 412 {object} rest.ErrorResponse "Issue tracker not configured"
// @Failure 502 {object} rest.ErrorResponse "Issue tracker rejected the worklog"
// @Failure 504 {object} rest.ErrorResponse "Issue tracker timed out"
// @Router /api/work-packages/{name}/worklog [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	log.Debugf("Submitting worklog for %q", name)

	submission, err := h.service.SubmitWorkPackage(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	var result Result
	select {
	case result = <-submission.Done():
	case <-r.Context().Done():
		submission.Cancel()
		result = <-submission.Done()
	}
	// A package removed while posting is already logged by Apply and does not change the answer.
	_ = h.service.Apply(context.WithoutCancel(r.Context()), result)
	if result.Err != nil {
		writeError(w, result.Err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, WorklogDTO{
		Id:          result.Id.String(),
		WorkPackage: result.Request.WorkPackage,
		Ticket:      result.Request.Ticket,
		Seconds:     result.Request.Seconds,
		Status:      string(result.Status),
	})
}

// History godoc
// @Summary List recent worklog submissions
// @Tags Worklog
// @Produce json
// @Param limit query int false "Number of entries, default 20"
// @Success 200 {array} WorklogDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid limit"
// @Router /api/worklogs [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	entries, err := h.service.History(r.Context(), limit)
	if err != nil {
		log.Errorf("Failed to read worklog history: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to read worklog history")
		return
	}
	result := make([]WorklogDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, WorklogDTO{
			Id:          entry.Id,
			WorkPackage: entry.WorkPackage,
			Ticket:      entry.Ticket,
			Seconds:     entry.Seconds,
			Status:      string(entry.Status),
			Error:       entry.Error,
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		})
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNothingToLog):
		rest.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, work_package.ErrNotFound):
		rest.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, issue_tracker.ErrNotConfigured), errors.Is(err, issue_tracker.ErrCredentialMissing):
		rest.WriteError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, issue_tracker.ErrConnectionTimeout):
		rest.WriteError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, issue_tracker.ErrAuthentication), errors.Is(err, issue_tracker.ErrResourceNotFound),
		errors.Is(err, issue_tracker.ErrUnexpectedResponse):
		rest.WriteError(w, http.StatusBadGateway, err.Error())
	default:
		log.Errorf("Worklog failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to submit worklog")
	}
}
