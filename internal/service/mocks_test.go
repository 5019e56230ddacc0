package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, userID int64, in model.CreateTaskInput) (model.Task, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, userID int64, filter model.TaskFilter, page, limit int) ([]model.Task, error) {
	args := m.Called(ctx, userID, filter, page, limit)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error) {
	args := m.Called(ctx, userID, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error {
	args := m.Called(ctx, userID, key, resourceID)
	return args.Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error) {
	args := m.Called(ctx, userID, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Stats(ctx context.Context, userID int64, now time.Time) (model.TaskStats, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(model.TaskStats), args.Error(1)
}

// MockCategoryRepository - мок репозитория категорий
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context, userID int64) ([]model.Category, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Get(ctx context.Context, userID, id int64) (model.Category, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (model.Category, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *MockCategoryRepository) Seed(ctx context.Context, userID int64, in []model.CreateCategoryInput) ([]model.Category, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).([]model.Category), args.Error(1)
}

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}
