package work_package

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/klokku/flextime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type WorkPackageDTO struct {
	Name         string  `json:"name"`
	Ticket       string  `json:"ticket"`
	TotalSeconds float64 `json:"totalSeconds"`
	Active       bool    `json:"active"`
	Display      string  `json:"display"`
}

type CreateWorkPackageDTO struct {
	Name   string `json:"name"`
	Ticket string `json:"ticket"`
	Start  bool   `json:"start"`
}

type EditWorkPackageDTO struct {
	Name          string   `json:"name"`
	Ticket        string   `json:"ticket"`
	LoggedSeconds *float64 `json:"loggedSeconds,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List work packages
// @Tags WorkPackage
// @Produce json
// @Success 200 {array} WorkPackageDTO
// @Router /api/work-packages [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing work packages")
	views := h.service.List()
	result := make([]WorkPackageDTO, 0, len(views))
	for _, view := range views {
		result = append(result, viewToDTO(view))
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create a work package
// @Tags WorkPackage
// @Accept json
// @Produce json
// @Param workPackage body CreateWorkPackageDTO true "Work package"
// @Success 201 {object} WorkPackageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Name already used"
// @Router /api/work-packages [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating work package")
	var dto CreateWorkPackageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	view, err := h.service.Create(r.Context(), dto.Name, dto.Ticket, dto.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, viewToDTO(view))
}

// Update godoc
// @Summary Rename a work package or change its ticket and logged time
// @Tags WorkPackage
// @Accept json
// @Produce json
// @Param name path string true "Work package name"
// @Param workPackage body EditWorkPackageDTO true "New values"
// @Success 200 {object} WorkPackageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Failure 409 {object} rest.ErrorResponse "Conflicting change"
// @Router /api/work-packages/{name} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating work package")
	var dto EditWorkPackageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	view, err := h.service.Edit(r.Context(), mux.Vars(r)["name"], Edit{
		Name:          dto.Name,
		Ticket:        dto.Ticket,
		LoggedSeconds: dto.LoggedSeconds,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, viewToDTO(view))
}

// Delete godoc
// @Summary Remove a work package
// @Description Packages that are running or hold more than a minute need confirm=true.
// @Tags WorkPackage
// @Param name path string true "Work package name"
// @Param confirm query bool false "Confirm removal"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Failure 409 {object} rest.ErrorResponse "Confirmation required"
// @Router /api/work-packages/{name} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Removing work package")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.service.Remove(r.Context(), mux.Vars(r)["name"], confirmed); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start godoc
// @Summary Start a work package, stopping the active one
// @Tags WorkPackage
// @Produce json
// @Param name path string true "Work package name"
// @Success 200 {object} WorkPackageDTO
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Failure 409 {object} rest.ErrorResponse "Already active"
// @Router /api/work-packages/{name}/start [post]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.act(w, r, name, h.service.Start(r.Context(), name))
}

// Stop godoc
// @Summary Stop a work package
// @Tags WorkPackage
// @Produce json
// @Param name path string true "Work package name"
// @Success 200 {object} WorkPackageDTO
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Failure 409 {object} rest.ErrorResponse "Not active"
// @Router /api/work-packages/{name}/stop [post]
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.act(w, r, name, h.service.Stop(r.Context(), name))
}

// Reset godoc
// @Summary Reset the tracked time of a work package
// @Tags WorkPackage
// @Produce json
// @Param name path string true "Work package name"
// @Success 200 {object} WorkPackageDTO
// @Failure 404 {object} rest.ErrorResponse "Work package not found"
// @Router /api/work-packages/{name}/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.act(w, r, name, h.service.Reset(r.Context(), name))
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, name string, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.service.Snapshot(name)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, viewToDTO(view))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		rest.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyName):
		rest.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrAlreadyActive),
		errors.Is(err, ErrNotActive), errors.Is(err, ErrConfirmationRequired):
		rest.WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Errorf("Work package request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to update work packages")
	}
}

func viewToDTO(view View) WorkPackageDTO {
	return WorkPackageDTO{
		Name:         view.Name,
		Ticket:       view.Ticket,
		TotalSeconds: view.TotalSeconds,
		Active:       view.Active,
		Display:      view.Text,
	}
}
