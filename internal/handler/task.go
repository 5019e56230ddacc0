package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/service"
	"github.com/BuzzLyutic/focusflow/pkg/respond"
)

type TaskService interface {
	Create(ctx context.Context, userID int64, in model.CreateTaskInput, idempKey string) (model.Task, error)
	Get(ctx context.Context, userID, id int64) (model.Task, error)
	List(ctx context.Context, userID int64, filter model.TaskFilter, page, limit int) ([]model.Task, error)
	Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	Stats(ctx context.Context, userID int64) (model.TaskStats, error)
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.CreateTaskInput
	if err := respond.Decode(r, &req); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), userID, req, idempKey)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

// List serves GET /tasks?page&limit&search&status&category_id.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid page")
		return
	}
	limit, err := intParam(q.Get("limit"), service.DefaultPageSize)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid limit")
		return
	}
	category, err := intParam(q.Get("category_id"), 0)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid category_id")
		return
	}

	filter := model.TaskFilter{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		CategoryID: int64(category),
	}
	tasks, err := h.service.List(r.Context(), userID, filter, page, limit)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	var req model.UpdateTaskInput
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, ok := pathID(r)
	if !ok {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleErrors(h.logger, w, r, err)
		return
	}

	respond.NoContent(w)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
