package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/pkg/respond"
)

type CategoryService interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
	Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (model.Category, error)
}

type CategoryHandler struct {
	service CategoryService
	logger  *zap.Logger
}

func NewCategoryHandler(srv CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: srv, logger: logger}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, list)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req model.CreateCategoryInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, c)
}
