package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами.
// Every call is scoped to one user: rows owned by someone else behave as
// missing.
type TaskRepository interface {
	Create(ctx context.Context, userID int64, in model.CreateTaskInput) (model.Task, error)
	Get(ctx context.Context, userID, id int64) (model.Task, error)
	List(ctx context.Context, userID int64, filter model.TaskFilter, page, limit int) ([]model.Task, error)
	Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error)
	Stats(ctx context.Context, userID int64, now time.Time) (model.TaskStats, error)
}

type CategoryRepository interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
	Get(ctx context.Context, userID, id int64) (model.Category, error)
	Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (model.Category, error)
	// Seed inserts the given categories in one transaction.
	Seed(ctx context.Context, userID int64, in []model.CreateCategoryInput) ([]model.Category, error)
}

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
}
