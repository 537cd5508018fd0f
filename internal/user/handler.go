package user

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
)

// Handler exposes HTTP endpoints for user operations (register / token / profile).
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// credentialsRequest is the body of the token and corporation link endpoints.
type credentialsRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (c *credentialsRequest) check() error {
	fe := apperr.FieldErrors{}
	if c.Email == nil || *c.Email == "" {
		fe.Add("email", "this field is required")
	}
	if c.Password == nil || *c.Password == "" {
		fe.Add("password", "this field is required")
	}
	return fe.Err()
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("user registered", "user_id", u.ID)
	respond.JSON(w, http.StatusCreated, u.Public())
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := req.check(); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	pair, err := h.svc.Token(r.Context(), *req.Email, *req.Password)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, pair)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if req.Refresh == "" {
		respond.Error(w, r, h.logger, apperr.Invalid(map[string]string{"refresh": "this field is required"}))
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.Refresh)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, pair)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.ViewProfile})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.Profile(r.Context(), c)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) LinkCorporation(w http.ResponseWriter, r *http.Request) {
	c, err := access.Require(r.Context(), access.Request{Op: access.LinkCorporation})
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	var req credentialsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	if err := req.check(); err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	p, err := h.svc.LinkCorporation(r.Context(), c.Account().ID, *req.Email, *req.Password)
	if err != nil {
		respond.Error(w, r, h.logger, err)
		return
	}
	h.logger.Infow("user linked to corporation", "user_id", p.ID, "corporation_id", p.Corporation.ID)
	respond.JSON(w, http.StatusOK, p)
}
