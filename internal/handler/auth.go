package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/repo"
	"github.com/BuzzLyutic/focusflow/pkg/respond"
)

type AuthService interface {
	Register(ctx context.Context, in model.RegisterInput) (model.AuthResponse, error)
	Login(ctx context.Context, in model.LoginInput) (model.AuthResponse, error)
}

type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

func NewAuthHandler(srv AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: srv, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if errors.Is(err, repo.ErrorConflict) {
		respond.Error(w, r, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	h.logger.Info("user registered", zap.Int64("user_id", resp.User.ID))
	respond.JSON(w, r, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, resp)
}
