package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/query"
	"github.com/BuzzLyutic/focusflow/internal/repo"
	"github.com/BuzzLyutic/focusflow/internal/service"
	"github.com/BuzzLyutic/focusflow/internal/session"
	"github.com/BuzzLyutic/focusflow/internal/testutil"
)

func setupE2EServer(t *testing.T) *httptest.Server {
	t.Helper()
	pool := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tasks := repo.NewStatsCache(repo.NewTaskRepo(pool), rdb, time.Minute, logger)
	categories := repo.NewCategoryRepo(pool)
	auth := service.NewAuthService(repo.NewUserRepo(pool), "e2e-secret", time.Hour)

	server := httptest.NewServer(NewRouter(Handlers{
		Tasks:      NewTaskHandler(service.NewTaskService(tasks, categories), logger),
		Categories: NewCategoryHandler(service.NewCategoryService(categories), logger),
		Auth:       NewAuthHandler(auth, logger),
		Verifier:   auth,
	}))
	t.Cleanup(server.Close)
	return server
}

func newE2EClient(t *testing.T, server *httptest.Server) *query.Client {
	t.Helper()
	logger := zap.NewNop()
	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"), logger)
	return query.New(gateway.New(server.URL+"/api", sess, logger), sess, logger)
}

func TestE2E_FullWorkflow(t *testing.T) {
	server := setupE2EServer(t)
	client := newE2EClient(t, server)
	ctx := context.Background()

	_, err := client.Register(ctx, "ada", "ada@example.com", "secret")
	require.NoError(t, err)
	require.False(t, client.Session().Authenticated())

	_, err = client.Login(ctx, "ada@example.com", "wrong")
	var formErr *query.FormError
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "Invalid credentials", formErr.Message)

	user, err := client.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)

	categories, err := client.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, len(model.DefaultCategories))
	work := categories[0]
	assert.Equal(t, "Work", work.Name)

	for i := 0; i < 12; i++ {
		in := model.CreateTaskInput{Title: fmt.Sprintf("Task %d", i+1)}
		if i%4 == 0 {
			in.CategoryID = &work.ID
		}
		_, err := client.CreateTask(ctx, in)
		require.NoError(t, err)
	}

	t.Run("pages until a short page", func(t *testing.T) {
		list := client.Tasks(model.TaskFilter{})
		require.NoError(t, list.Load(ctx))
		assert.Len(t, list.Items(), 10)
		assert.True(t, list.HasNextPage())

		require.NoError(t, list.FetchNextPage(ctx))
		assert.Len(t, list.Items(), 12)
		assert.False(t, list.HasNextPage())
		assert.Equal(t, "Task 12", list.Items()[0].Title)
	})

	t.Run("category partition", func(t *testing.T) {
		list := client.Tasks(model.TaskFilter{CategoryID: work.ID})
		require.NoError(t, list.Load(ctx))
		require.Len(t, list.Items(), 3)
		for _, task := range list.Items() {
			require.NotNil(t, task.Category)
			assert.Equal(t, "Work", task.Category.Name)
		}
	})

	t.Run("toggle and delete refresh stats", func(t *testing.T) {
		stats, err := client.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.Total)
		assert.Zero(t, stats.Percent)

		list := client.Tasks(model.TaskFilter{})
		require.NoError(t, list.Load(ctx))
		first := list.Items()[0]

		done, err := client.ToggleStatus(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, done.Status)

		stats, err = client.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, 8, stats.Percent)
		require.Len(t, stats.ChartData, 7)
		assert.Equal(t, 1, stats.ChartData[6].Count)

		completed := client.Tasks(model.TaskFilter{Status: string(model.StatusCompleted)})
		require.NoError(t, completed.Load(ctx))
		require.Len(t, completed.Items(), 1)
		assert.Equal(t, first.ID, completed.Items()[0].ID)

		require.NoError(t, client.DeleteTask(ctx, first.ID))
		stats, err = client.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 11, stats.Total)
		assert.Zero(t, stats.Completed)
	})

	t.Run("title only create lands first", func(t *testing.T) {
		created, err := client.CreateTask(ctx, model.CreateTaskInput{Title: "Just a title"})
		require.NoError(t, err)
		assert.Equal(t, model.PriorityMedium, created.Priority)

		list := client.Tasks(model.TaskFilter{})
		require.NoError(t, list.Load(ctx))
		assert.Equal(t, created.ID, list.Items()[0].ID)
	})

	t.Run("requests without a token are rejected", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/tasks")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestE2E_UsersAreIsolated(t *testing.T) {
	server := setupE2EServer(t)
	ctx := context.Background()

	ada := newE2EClient(t, server)
	eve := newE2EClient(t, server)
	for _, c := range []struct {
		client *query.Client
		name   string
	}{{ada, "ada"}, {eve, "eve"}} {
		_, err := c.client.Register(ctx, c.name, c.name+"@example.com", "secret")
		require.NoError(t, err)
		_, err = c.client.Login(ctx, c.name+"@example.com", "secret")
		require.NoError(t, err)
	}

	task, err := ada.CreateTask(ctx, model.CreateTaskInput{Title: "private"})
	require.NoError(t, err)

	list := eve.Tasks(model.TaskFilter{})
	require.NoError(t, list.Load(ctx))
	assert.True(t, list.Empty())

	err = eve.DeleteTask(ctx, task.ID)
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestE2E_ConcurrentCreates(t *testing.T) {
	server := setupE2EServer(t)
	client := newE2EClient(t, server)
	ctx := context.Background()

	_, err := client.Register(ctx, "ada", "ada@example.com", "secret")
	require.NoError(t, err)
	_, err = client.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := client.CreateTask(ctx, model.CreateTaskInput{Title: fmt.Sprintf("Concurrent %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, stats.Total)
}
