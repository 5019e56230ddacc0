package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type TaskService struct {
	tasks      repo.TaskRepository
	categories repo.CategoryRepository
	now        func() time.Time
}

func NewTaskService(tasks repo.TaskRepository, categories repo.CategoryRepository) *TaskService {
	return &TaskService{tasks: tasks, categories: categories, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, userID int64, in model.CreateTaskInput, idempKey string) (model.Task, error) {
	in, err := s.prepareCreate(ctx, userID, in) // Валидация модели на корректность введенных данных
	if err != nil {
		return model.Task{}, err
	}

	if idempKey != "" { // Обеспечение идемпотентности - если ключ с ресурсом уже существует, мы не создаем его еще раз
		existingID, err := s.tasks.GetIdempotencyKey(ctx, userID, idempKey)
		switch {
		case err == nil:
			return s.tasks.Get(ctx, userID, existingID)
		case !errors.Is(err, repo.ErrorNotFound):
			return model.Task{}, fmt.Errorf("look up idempotency key: %w", err)
		}
	}

	// Создание новой задачи
	task, err := s.tasks.Create(ctx, userID, in)
	if err != nil {
		return task, err
	}

	// Сохранение нового ключа
	if idempKey != "" {
		err := s.tasks.SaveIdempotencyKey(ctx, userID, idempKey, task.ID)
		if errors.Is(err, repo.ErrorConflict) {
			return s.yieldToWinner(ctx, userID, idempKey, task.ID)
		}
		if err != nil {
			return task, fmt.Errorf("save idempotency key: %w", err)
		}
	}

	return task, nil
}

// yieldToWinner handles a concurrent request with the same key that bound it
// first: the duplicate is removed and the winner's task returned.
func (s *TaskService) yieldToWinner(ctx context.Context, userID int64, idempKey string, duplicateID int64) (model.Task, error) {
	winnerID, err := s.tasks.GetIdempotencyKey(ctx, userID, idempKey)
	if err != nil {
		return model.Task{}, fmt.Errorf("look up idempotency key: %w", err)
	}
	if err := s.tasks.Delete(ctx, userID, duplicateID); err != nil && !errors.Is(err, repo.ErrorNotFound) {
		return model.Task{}, fmt.Errorf("drop duplicate task: %w", err)
	}
	return s.tasks.Get(ctx, userID, winnerID)
}

func (s *TaskService) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	return s.tasks.Get(ctx, userID, id)
}

// List returns one page of tasks. page starts at 1; limit must be 1..MaxPageSize.
func (s *TaskService) List(ctx context.Context, userID int64, filter model.TaskFilter, page, limit int) ([]model.Task, error) {
	if page < 1 {
		return nil, invalid("page must be at least 1")
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, invalid("limit must be between 1 and %d", MaxPageSize)
	}
	filter = filter.Normalize()
	if filter.Status != model.StatusAll && !model.Status(filter.Status).Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	return s.tasks.List(ctx, userID, filter, page, limit)
}

func (s *TaskService) Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, invalid("title is required")
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return model.Task{}, invalid("unknown status %q", *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return model.Task{}, invalid("unknown priority %q", *patch.Priority)
	}
	if err := s.checkCategory(ctx, userID, patch.CategoryID); err != nil {
		return model.Task{}, err
	}
	if patch.Subtasks != nil {
		subtasks := cleanSubtasks(*patch.Subtasks)
		patch.Subtasks = &subtasks
	}
	return s.tasks.Update(ctx, userID, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	return s.tasks.Delete(ctx, userID, id)
}

// Stats aggregates the user's tasks as of the current calendar day.
func (s *TaskService) Stats(ctx context.Context, userID int64) (model.TaskStats, error) {
	return s.tasks.Stats(ctx, userID, s.now())
}

func (s *TaskService) prepareCreate(ctx context.Context, userID int64, in model.CreateTaskInput) (model.CreateTaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, invalid("title is required")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return in, invalid("unknown priority %q", in.Priority)
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return in, err
	}
	in.Subtasks = cleanSubtasks(in.Subtasks)
	return in, nil
}

func (s *TaskService) checkCategory(ctx context.Context, userID int64, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.categories.Get(ctx, userID, *id)
	if errors.Is(err, repo.ErrorNotFound) {
		return invalid("unknown category %d", *id)
	}
	return err
}

// cleanSubtasks trims titles and drops blank drafts.
func cleanSubtasks(in []model.SubtaskInput) []model.SubtaskInput {
	out := make([]model.SubtaskInput, 0, len(in))
	for _, s := range in {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
