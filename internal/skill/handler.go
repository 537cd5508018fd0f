package skill

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
	"github.com/ovaphlow/pitchfork/service-community/internal/skill/entity"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// AssignResponse is returned by both assignment endpoints.
type AssignResponse struct {
	Message string       `json:"message"`
	Skill   entity.Skill `json:"skill"`
}

type addByIDRequest struct {
	SkillID *json.Number `json:"skill_id"`
}

type titleRequest struct {
	Title *string `json:"title"`
}

func (h *Handler) AddByID(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.AssignSkill})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req addByIDRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if req.SkillID == nil {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"skill_id": "this field is required"}))
		return
	}
	id, err := req.SkillID.Int64()
	if err != nil || id <= 0 {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"skill_id": "a valid integer is required"}))
		return
	}
	sk, created, err := h.svc.AssignByID(r.Context(), c.Account().ID, id)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.writeAssigned(w, c, sk, created)
}

func (h *Handler) AddByTitle(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.AssignSkill})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req titleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if req.Title == nil {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"title": "this field is required"}))
		return
	}
	sk, created, err := h.svc.AssignByTitle(r.Context(), c.Account().ID, *req.Title)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.writeAssigned(w, c, sk, created)
}

func (h *Handler) writeAssigned(w http.ResponseWriter, c access.Caller, sk *entity.Skill, created bool) {
	if !created {
		respond.JSON(w, http.StatusOK, AssignResponse{Message: fmt.Sprintf("skill %q already added", sk.Title), Skill: *sk})
		return
	}
	h.logger.Infow("skill assigned", "user_id", c.Account().ID, "skill_id", sk.ID)
	respond.JSON(w, http.StatusCreated, AssignResponse{Message: fmt.Sprintf("skill %q added", sk.Title), Skill: *sk})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.ListSkills}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	limit, offset, err := respond.Page(r)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	skills, err := h.svc.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, skills)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := access.Require(r.Context(), access.Request{Op: access.CreateSkill}); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req titleRequest
	if err := respond.DecodeStrict(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if req.Title == nil {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"title": "this field is required"}))
		return
	}
	sk, err := h.svc.Create(r.Context(), *req.Title)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sk)
}
