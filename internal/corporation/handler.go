package corporation

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
)

// Handler exposes corporation registration.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	c, err := h.svc.Register(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("corporation registered", "corporation_id", c.ID)
	respond.JSON(w, http.StatusCreated, c)
}
