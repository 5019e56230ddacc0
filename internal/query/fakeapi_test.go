package query

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/session"
	"github.com/BuzzLyutic/focusflow/pkg/respond"
)

const testToken = "test-token"

// fakeAPI is an in-memory stand-in for the HTTP API.
type fakeAPI struct {
	mu         sync.Mutex
	tasks      []model.Task // newest first
	categories []model.Category
	nextID     int64
	calls      map[string]int

	failWrites bool
	failReads  bool

	// when hold is set, GET /tasks announces itself on arrived and waits
	hold    chan struct{}
	arrived chan struct{}
	// the same for GET /tasks/stats
	statsHold    chan struct{}
	statsArrived chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}}
}

func (f *fakeAPI) seed(n int, mutate func(i int, t *model.Task)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.nextID++
		t := model.Task{
			ID:       f.nextID,
			UserID:   1,
			Title:    fmt.Sprintf("Task %d", f.nextID),
			Status:   model.StatusPending,
			Priority: model.PriorityMedium,
			Subtasks: []model.Subtask{},
		}
		if mutate != nil {
			mutate(i, &t)
		}
		f.tasks = append([]model.Task{t}, f.tasks...)
	}
}

func (f *fakeAPI) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.calls[r.Method+" "+r.URL.Path]++
			f.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/auth/login", f.login)
	r.Post("/auth/register", f.register)
	r.Group(func(r chi.Router) {
		r.Use(f.auth)
		r.Get("/tasks", f.listTasks)
		r.Get("/tasks/stats", f.stats)
		r.Post("/tasks", f.createTask)
		r.Put("/tasks/{id}", f.updateTask)
		r.Delete("/tasks/{id}", f.deleteTask)
		r.Get("/categories", f.listCategories)
		r.Post("/categories", f.createCategory)
	})
	return r
}

func (f *fakeAPI) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			respond.Error(w, r, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	json.NewDecoder(r.Body).Decode(&in)
	if in.Password != "secret" {
		respond.Error(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respond.JSON(w, r, http.StatusOK, model.AuthResponse{
		Token: testToken,
		User:  model.User{ID: 1, Username: "ada", Email: in.Email},
	})
}

func (f *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	json.NewDecoder(r.Body).Decode(&in)
	if in.Email == "taken@example.com" {
		respond.Error(w, r, http.StatusConflict, "User already exists")
		return
	}
	respond.JSON(w, r, http.StatusCreated, model.AuthResponse{
		Token: testToken,
		User:  model.User{ID: 2, Username: in.Username, Email: in.Email},
	})
}

func (f *fakeAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hold, arrived, fail := f.hold, f.arrived, f.failReads
	f.mu.Unlock()
	if hold != nil {
		arrived <- struct{}{}
		<-hold
	}
	if fail {
		respond.Error(w, r, http.StatusInternalServerError, "database unavailable")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	search := strings.ToLower(q.Get("search"))
	status := q.Get("status")
	category, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)

	f.mu.Lock()
	matched := []model.Task{}
	for _, t := range f.tasks {
		if search != "" && !strings.Contains(strings.ToLower(t.Title), search) {
			continue
		}
		if status != "" && string(t.Status) != status {
			continue
		}
		if category != 0 && (t.CategoryID == nil || *t.CategoryID != category) {
			continue
		}
		matched = append(matched, t)
	}
	f.mu.Unlock()

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	respond.JSON(w, r, http.StatusOK, matched[start:end])
}

func (f *fakeAPI) stats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hold, arrived := f.statsHold, f.statsArrived
	f.mu.Unlock()
	if hold != nil {
		arrived <- struct{}{}
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		respond.Error(w, r, http.StatusInternalServerError, "database unavailable")
		return
	}

	now := time.Now()
	var s model.TaskStats
	for _, t := range f.tasks {
		s.Total++
		if t.Status == model.StatusCompleted {
			s.Completed++
		} else if t.Priority == model.PriorityHigh {
			s.High++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Completed
	respond.JSON(w, r, http.StatusOK, s)
}

func (f *fakeAPI) createTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		respond.Error(w, r, http.StatusInternalServerError, "write failed")
		return
	}
	if r.Header.Get("Idempotency-Key") == "" {
		respond.Error(w, r, http.StatusBadRequest, "missing idempotency key")
		return
	}

	var in model.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	f.nextID++
	t := model.Task{
		ID:          f.nextID,
		UserID:      1,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.StatusPending,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CategoryID:  in.CategoryID,
		Subtasks:    []model.Subtask{},
	}
	for i, s := range in.Subtasks {
		id := int64(100*f.nextID) + int64(i)
		t.Subtasks = append(t.Subtasks, model.Subtask{ID: &id, TaskID: t.ID, Title: s.Title, IsCompleted: s.IsCompleted})
	}
	f.tasks = append([]model.Task{t}, f.tasks...)
	respond.JSON(w, r, http.StatusCreated, t)
}

func (f *fakeAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		respond.Error(w, r, http.StatusInternalServerError, "write failed")
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var patch model.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		t := &f.tasks[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		respond.JSON(w, r, http.StatusOK, *t)
		return
	}
	respond.Error(w, r, http.StatusNotFound, "Task not found")
}

func (f *fakeAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		respond.Error(w, r, http.StatusInternalServerError, "write failed")
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			respond.NoContent(w)
			return
		}
	}
	respond.Error(w, r, http.StatusNotFound, "Task not found")
}

func (f *fakeAPI) listCategories(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	respond.JSON(w, r, http.StatusOK, append([]model.Category{}, f.categories...))
}

func (f *fakeAPI) createCategory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var in model.CreateCategoryInput
	json.NewDecoder(r.Body).Decode(&in)
	if !model.ValidColor(in.Color) {
		respond.Error(w, r, http.StatusBadRequest, "unknown color")
		return
	}
	c := model.Category{ID: int64(len(f.categories) + 1), UserID: 1, Name: in.Name, Color: in.Color}
	f.categories = append(f.categories, c)
	respond.JSON(w, r, http.StatusCreated, c)
}

type recordedNotes struct {
	mu    sync.Mutex
	items []Notification
}

func (n *recordedNotes) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
}

func (n *recordedNotes) last() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}
	}
	return n.items[len(n.items)-1]
}

// newTestClient returns a signed-in client talking to api.
func newTestClient(t *testing.T, api *fakeAPI) (*Client, *recordedNotes) {
	t.Helper()
	c, notes := newSignedOutClient(t, api)
	require.NoError(t, c.session.SetAuth(model.User{ID: 1, Username: "ada"}, testToken))
	return c, notes
}

func newSignedOutClient(t *testing.T, api *fakeAPI) (*Client, *recordedNotes) {
	t.Helper()
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)

	sess := session.NewStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	gw := gateway.New(srv.URL, sess, zap.NewNop())
	notes := &recordedNotes{}
	return New(gw, sess, zap.NewNop(), WithNotifier(notes)), notes
}
