package issue_tracker

import (
	"errors"
	"net/http"

	"github.com/klokku/flextime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	client Client
}

func NewHandler(client Client) *Handler {
	return &Handler{client: client}
}

// Verify godoc
// @Summary Check the issue tracker url and stored credentials
// @Tags Settings
// @Produce json
// @Success 200 {object} Account
// @Failure 412 {object} rest.ErrorResponse "Url or credentials missing"
// @Failure 502 {object} rest.ErrorResponse "Issue tracker rejected the credentials"
// @Failure 504 {object} rest.ErrorResponse "Issue tracker timed out"
// @Router /api/settings/verify [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	log.Debug("Verifying issue tracker connection")
	account, err := h.client.Verify(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrCredentialMissing):
			rest.WriteError(w, http.StatusPreconditionFailed, err.Error())
		case errors.Is(err, ErrConnectionTimeout):
			rest.WriteError(w, http.StatusGatewayTimeout, err.Error())
		default:
			rest.WriteError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, account)
}
