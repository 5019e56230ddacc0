package query

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
)

// PageSize is the number of tasks requested per page. A page shorter than
// this ends the sequence.
const PageSize = 10

type LoadState int

const (
	StateIdle LoadState = iota
	StateInitialLoading
	StateFetchingNext
	StateError
)

func (s LoadState) String() string {
	switch s {
	case StateInitialLoading:
		return "initial-loading"
	case StateFetchingNext:
		return "fetching-next"
	case StateError:
		return "error"
	}
	return "idle"
}

type pageState struct {
	pages    [][]model.Task
	done     bool
	fetching bool
	err      error
}

func (s pageState) state() LoadState {
	switch {
	case s.fetching && len(s.pages) == 0:
		return StateInitialLoading
	case s.fetching:
		return StateFetchingNext
	case s.err != nil:
		return StateError
	}
	return StateIdle
}

// TaskList is the view of one filter partition. Handles for equal filters
// share the same cached pages.
type TaskList struct {
	c      *Client
	filter model.TaskFilter
	key    string
}

func (c *Client) Tasks(filter model.TaskFilter) *TaskList {
	filter = filter.Normalize()
	return &TaskList{c: c, filter: filter, key: partitionKey(filter)}
}

func partitionKey(f model.TaskFilter) string {
	return fmt.Sprintf("%q|%s|%d", f.Search, f.Status, f.CategoryID)
}

func (l *TaskList) Filter() model.TaskFilter { return l.filter }

// Load fetches the first page unless the partition already has data or a
// fetch is running.
func (l *TaskList) Load(ctx context.Context) error {
	s, _ := l.c.tasks.Load(l.key)
	if len(s.pages) > 0 || s.fetching {
		return nil
	}
	return l.FetchNextPage(ctx)
}

// FetchNextPage requests the page after the last loaded one. It does nothing
// while another fetch for the partition is in flight or after a short page.
func (l *TaskList) FetchNextPage(ctx context.Context) error {
	if err := l.c.requireSession(); err != nil {
		return err
	}

	var page int
	gen := l.c.tasks.Modify(l.key, func(s *pageState) {
		if s.fetching || s.done {
			return
		}
		s.fetching = true
		s.err = nil
		page = len(s.pages) + 1
	})
	if page == 0 {
		return nil
	}

	var items []model.Task
	err := l.c.api.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/tasks",
		Query:  l.query(page),
	}, &items)

	abandoned := ctx.Err() != nil
	applied := l.c.tasks.Commit(l.key, gen, func(s *pageState) {
		s.fetching = false
		switch {
		case abandoned:
		case err != nil:
			s.err = err
		default:
			s.pages = append(s.pages, items)
			s.done = len(items) < PageSize
		}
	})
	if !applied {
		l.c.logger.Debug("discarding stale task page", zap.String("partition", l.key), zap.Int("page", page))
		return nil
	}
	if abandoned {
		return ctx.Err()
	}
	return err
}

// Refetch drops the partition's pages and loads the first page again.
func (l *TaskList) Refetch(ctx context.Context) error {
	l.c.tasks.Invalidate(l.key)
	return l.FetchNextPage(ctx)
}

// Release forgets the partition. A fetch still in flight for it is discarded.
func (l *TaskList) Release() {
	l.c.tasks.Forget(l.key)
}

func (l *TaskList) query(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(PageSize))
	if l.filter.Search != "" {
		q.Set("search", l.filter.Search)
	}
	if l.filter.Status != model.StatusAll {
		q.Set("status", l.filter.Status)
	}
	if l.filter.CategoryID != 0 {
		q.Set("category_id", strconv.FormatInt(l.filter.CategoryID, 10))
	}
	return q
}

// Items returns every loaded task in fetch order.
func (l *TaskList) Items() []model.Task {
	s, _ := l.c.tasks.Load(l.key)
	var n int
	for _, p := range s.pages {
		n += len(p)
	}
	out := make([]model.Task, 0, n)
	for _, p := range s.pages {
		out = append(out, p...)
	}
	return out
}

func (l *TaskList) Pages() int {
	s, _ := l.c.tasks.Load(l.key)
	return len(s.pages)
}

func (l *TaskList) State() LoadState {
	s, _ := l.c.tasks.Load(l.key)
	return s.state()
}

func (l *TaskList) Err() error {
	s, _ := l.c.tasks.Load(l.key)
	return s.err
}

// HasNextPage is true once a full page has been loaded and no short page
// has been seen since.
func (l *TaskList) HasNextPage() bool {
	s, _ := l.c.tasks.Load(l.key)
	return len(s.pages) > 0 && !s.done
}

func (l *TaskList) IsFetchingNextPage() bool {
	return l.State() == StateFetchingNext
}

// IsFetching covers both the initial load and appends.
func (l *TaskList) IsFetching() bool {
	s, _ := l.c.tasks.Load(l.key)
	return s.fetching
}

// Empty reports a settled partition with no matching tasks.
func (l *TaskList) Empty() bool {
	s, _ := l.c.tasks.Load(l.key)
	return len(s.pages) > 0 && !s.fetching && s.err == nil && len(s.pages[0]) == 0
}
