package event

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// registerRequest carries the event id; a "user" member is not read, the
// registrant is always the caller.
type registerRequest struct {
	Event *json.Number `json:"event"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ListEvents}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	limit, offset, err := respond.Page(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	events, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, events)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rep, err := access.RequireRepresentative(r.Context(), access.CreateEvent)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	fields, err := respond.DecodeFields(r, Fields...)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	e, err := h.svc.Create(r.Context(), rep.Corporation.ID, fields)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("event created", "event_id", e.ID, "corporation_id", e.OrganizerID, "user_id", rep.User.ID)
	respond.JSON(w, http.StatusCreated, e)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ViewEvent}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	d, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.RegisterForEvent})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if req.Event == nil {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"event": "this field is required"}))
		return
	}
	eventID, err := req.Event.Int64()
	if err != nil || eventID <= 0 {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"event": errUnknownEvent}))
		return
	}
	created, err := h.svc.Register(r.Context(), c.Account().ID, eventID)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if !created {
		respond.JSON(w, http.StatusOK, respond.Message{Message: "already registered"})
		return
	}
	h.logger.Infow("registered for event", "event_id", eventID, "user_id", c.Account().ID)
	respond.JSON(w, http.StatusCreated, respond.Message{Message: "registered"})
}
