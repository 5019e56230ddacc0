package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

func TestCreateTask_TitleOnlyLandsOnFirstPage(t *testing.T) {
	api := newFakeAPI()
	api.seed(12, nil)
	c, notes := newTestClient(t, api)
	ctx := context.Background()

	list := c.Tasks(model.TaskFilter{})
	require.NoError(t, list.Load(ctx))

	created, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Empty(t, created.Subtasks)
	assert.Equal(t, Notification{Level: LevelSuccess, Message: "Task created successfully"}, notes.last())

	assert.Zero(t, list.Pages(), "cached pages dropped")
	require.NoError(t, list.Load(ctx))
	items := list.Items()
	require.Len(t, items, 10)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, "", items[0].Description)
}

func TestCreateTask_EmptyTitleRejectedLocally(t *testing.T) {
	api := newFakeAPI()
	c, notes := newTestClient(t, api)

	_, err := c.CreateTask(context.Background(), model.CreateTaskInput{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, api.count("POST /tasks"))
	assert.Equal(t, LevelError, notes.last().Level)
}

func TestCreateTask_WithSubtasksAndDueDate(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestClient(t, api)

	due := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	created, err := c.CreateTask(context.Background(), model.CreateTaskInput{
		Title:    "Ship release",
		Priority: model.PriorityHigh,
		DueDate:  &due,
		Subtasks: []model.SubtaskInput{{Title: "Tag"}, {Title: "Announce"}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PriorityHigh, created.Priority)
	require.NotNil(t, created.DueDate)
	assert.True(t, due.Equal(*created.DueDate))
	require.Len(t, created.Subtasks, 2)
	assert.NotNil(t, created.Subtasks[0].ID)
	assert.Equal(t, "Announce", created.Subtasks[1].Title)
}

func TestMutations_RefreshStats(t *testing.T) {
	api := newFakeAPI()
	api.seed(4, nil)
	c, _ := newTestClient(t, api)
	ctx := context.Background()

	before, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, before.Total)

	created, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "One more", Priority: model.PriorityHigh})
	require.NoError(t, err)

	after, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Total)
	assert.Equal(t, 1, after.High)

	_, err = c.ToggleStatus(ctx, created)
	require.NoError(t, err)
	toggled, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, toggled.Completed)
	assert.Equal(t, 0, toggled.High)
	assert.Equal(t, 20, toggled.Percent)

	require.NoError(t, c.DeleteTask(ctx, created.ID))
	final, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, final.Total)
	assert.Equal(t, 0, final.Completed)

	assert.Equal(t, 4, api.count("GET /tasks/stats"))
}

func TestToggleStatus_RoundTrip(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, func(_ int, task *model.Task) { task.Status = model.StatusInProgress })
	c, notes := newTestClient(t, api)
	ctx := context.Background()

	list := c.Tasks(model.TaskFilter{})
	require.NoError(t, list.Load(ctx))
	task := list.Items()[0]

	done, err := c.ToggleStatus(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, "Task updated", notes.last().Message)

	back, err := c.ToggleStatus(ctx, done)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, back.Status)

	require.NoError(t, list.Load(ctx))
	assert.Equal(t, model.StatusPending, list.Items()[0].Status)
}

func TestUpdateTask_SparsePatch(t *testing.T) {
	api := newFakeAPI()
	api.seed(1, func(_ int, task *model.Task) { task.Priority = model.PriorityLow })
	c, _ := newTestClient(t, api)

	title := "Renamed"
	updated, err := c.UpdateTask(context.Background(), 1, model.UpdateTaskInput{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.PriorityLow, updated.Priority)
	assert.Equal(t, model.StatusPending, updated.Status)
}

func TestDeleteTask_RemovesFromList(t *testing.T) {
	api := newFakeAPI()
	api.seed(3, nil)
	c, notes := newTestClient(t, api)
	ctx := context.Background()

	list := c.Tasks(model.TaskFilter{})
	require.NoError(t, list.Load(ctx))
	victim := list.Items()[1].ID

	require.NoError(t, c.DeleteTask(ctx, victim))
	assert.Equal(t, "Task deleted", notes.last().Message)

	require.NoError(t, list.Load(ctx))
	for _, task := range list.Items() {
		assert.NotEqual(t, victim, task.ID)
	}
	assert.Len(t, list.Items(), 2)
}

func TestMutationFailure_LeavesCacheUntouched(t *testing.T) {
	api := newFakeAPI()
	api.seed(3, nil)
	c, notes := newTestClient(t, api)
	ctx := context.Background()

	list := c.Tasks(model.TaskFilter{})
	require.NoError(t, list.Load(ctx))
	_, err := c.Stats(ctx)
	require.NoError(t, err)

	api.mu.Lock()
	api.failWrites = true
	api.mu.Unlock()

	tests := []struct {
		name    string
		run     func() error
		message string
	}{
		{
			name: "create",
			run: func() error {
				_, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "Nope"})
				return err
			},
			message: "Failed to create task",
		},
		{
			name: "update",
			run: func() error {
				_, err := c.ToggleStatus(ctx, list.Items()[0])
				return err
			},
			message: "Failed to update task",
		},
		{
			name:    "delete",
			run:     func() error { return c.DeleteTask(ctx, 1) },
			message: "Failed to delete task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.run())
			assert.Equal(t, Notification{Level: LevelError, Message: tt.message}, notes.last())
			assert.Equal(t, 1, list.Pages())
			assert.Len(t, list.Items(), 3)
		})
	}

	_, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET /tasks"))
	assert.Equal(t, 1, api.count("GET /tasks/stats"))
}

func TestMutations_RequireSession(t *testing.T) {
	api := newFakeAPI()
	c, _ := newSignedOutClient(t, api)
	ctx := context.Background()

	_, err := c.CreateTask(ctx, model.CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, c.DeleteTask(ctx, 1), ErrNoSession)
	_, err = c.UpdateTask(ctx, 1, model.UpdateTaskInput{})
	assert.ErrorIs(t, err, ErrNoSession)
}
