package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
)

var ErrEmptyTitle = errors.New("task title is required")

// CreateTask writes a new task. Priority defaults to medium. Each call sends a
// fresh Idempotency-Key so a retried request cannot create a duplicate.
func (c *Client) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error) {
	var task model.Task
	if err := c.requireSession(); err != nil {
		return task, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		c.notify(LevelError, "Failed to create task")
		return task, ErrEmptyTitle
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Subtasks == nil {
		in.Subtasks = []model.SubtaskInput{}
	}

	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/tasks",
		Body:   in,
		Header: http.Header{"Idempotency-Key": {uuid.NewString()}},
	}, &task)
	if err != nil {
		return task, c.mutationFailed("create task", "Failed to create task", err)
	}

	c.invalidateTaskViews()
	c.notify(LevelSuccess, "Task created successfully")
	return task, nil
}

// UpdateTask sends only the fields set in patch.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch model.UpdateTaskInput) (model.Task, error) {
	var task model.Task
	if err := c.requireSession(); err != nil {
		return task, err
	}

	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/tasks/%d", id),
		Body:   patch,
	}, &task)
	if err != nil {
		return task, c.mutationFailed("update task", "Failed to update task", err)
	}

	c.invalidateTaskViews()
	c.notify(LevelSuccess, "Task updated")
	return task, nil
}

// ToggleStatus flips a task between completed and pending.
func (c *Client) ToggleStatus(ctx context.Context, task model.Task) (model.Task, error) {
	next := task.ToggledStatus()
	return c.UpdateTask(ctx, task.ID, model.UpdateTaskInput{Status: &next})
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := c.requireSession(); err != nil {
		return err
	}

	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/tasks/%d", id),
	}, nil)
	if err != nil {
		return c.mutationFailed("delete task", "Failed to delete task", err)
	}

	c.invalidateTaskViews()
	c.notify(LevelSuccess, "Task deleted")
	return nil
}

// mutationFailed reports a failed write. Cached state is left as it was.
func (c *Client) mutationFailed(op, msg string, err error) error {
	c.logger.Warn(op+" failed", zap.Error(err))
	c.notify(LevelError, msg)
	return fmt.Errorf("%s: %w", op, err)
}
