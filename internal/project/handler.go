package project

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ListProjects}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	limit, offset, err := respond.Page(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	projects, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, projects)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.CreateProject})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req CreateInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Create(r.Context(), c.Account().ID, req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("project created", "project_id", p.ID, "user_id", p.MainUserID)
	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ViewProject}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.ViewProject})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	fields, err := respond.DecodeFields(r, Updatable...)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Update(r.Context(), c, id, fields)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.ViewProject})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), c, id); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("project deleted", "project_id", id, "user_id", c.Account().ID)
	respond.NoContent(w)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.JoinProject})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	created, err := h.svc.Join(r.Context(), c.Account().ID, id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if !created {
		respond.JSON(w, http.StatusOK, respond.Message{Message: "already participating"})
		return
	}
	respond.JSON(w, http.StatusCreated, respond.Message{Message: "joined project"})
}

func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ViewProject}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	users, err := h.svc.Participants(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}
