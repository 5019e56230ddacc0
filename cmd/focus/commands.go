package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/query"
	"github.com/BuzzLyutic/focusflow/internal/scroll"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("usage")

type app struct {
	client *query.Client
	api    *gateway.Client
	out    io.Writer
}

type command struct {
	usage string
	// failure is printed when the server gives no reason of its own.
	failure string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":      {"login -email E -password P", "Login failed", (*app).login},
	"register":   {"register -username U -email E -password P", "Registration failed", (*app).register},
	"logout":     {"logout", "Logout failed", (*app).logout},
	"list":       {"list [-search S] [-status all|pending|in_progress|completed] [-category ID] [-pages N | -all]", "Failed to load tasks", (*app).list},
	"add":        {"add -title T [-desc D] [-priority low|medium|high] [-due YYYY-MM-DD] [-category ID] [-subtask S]...", "Failed to create task", (*app).add},
	"update":     {"update ID [-title T] [-desc D] [-status S] [-priority P] [-due YYYY-MM-DD] [-category ID]", "Failed to update task", (*app).update},
	"toggle":     {"toggle ID", "Failed to update task", (*app).toggle},
	"rm":         {"rm ID", "Failed to delete task", (*app).remove},
	"stats":      {"stats", "Failed to load stats", (*app).stats},
	"categories": {"categories [-add NAME -color C]", "Failed to load categories", (*app).categories},
}

type terminalNotifier struct {
	w io.Writer
}

func (n terminalNotifier) Notify(note query.Notification) {
	prefix := "·"
	switch note.Level {
	case query.LevelSuccess:
		prefix = "✓"
	case query.LevelError:
		prefix = "✗"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, note.Message)
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n\n", args[0])
		a.usage()
		return errUsage
	}
	err := cmd.run(a, ctx, args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.out, "usage: focus", cmd.usage)
	case errors.Is(err, query.ErrNoSession):
		fmt.Fprintln(a.out, "not signed in, run: focus login")
	default:
		fmt.Fprintln(a.out, "error:", errorText(err, cmd.failure))
	}
	return err
}

// errorText prefers the server's reason; local errors such as a bad flag
// value speak for themselves.
func errorText(err error, fallback string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return gateway.Message(err, fallback)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fallback
	}
	return err.Error()
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: focus <command> [flags]")
	for _, name := range names {
		fmt.Fprintln(a.out, "  "+commands[name].usage)
	}
}

func newFlags(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login", a.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" || *password == "" {
		return errUsage
	}
	_, err := a.client.Login(ctx, *email, *password)
	return err
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register", a.out)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" || *email == "" || *password == "" {
		return errUsage
	}
	_, err := a.client.Register(ctx, *username, *email, *password)
	return err
}

func (a *app) logout(_ context.Context, _ []string) error {
	return a.client.Logout()
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlags("list", a.out)
	search := fs.String("search", "", "title contains")
	status := fs.String("status", model.StatusAll, "status filter")
	category := fs.Int64("category", 0, "category id")
	pages := fs.Int("pages", 1, "pages to load")
	all := fs.Bool("all", false, "load every page")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	list := a.client.Tasks(model.TaskFilter{Search: *search, Status: *status, CategoryID: *category})
	if err := list.Load(ctx); err != nil {
		return err
	}

	// The end of the printed list plays the sentinel: each pass scrolls it
	// fully into view.
	trig := scroll.New(list, scroll.FullyVisible)
	defer trig.Disconnect()
	for *all || list.Pages() < *pages {
		fired, err := trig.Observe(ctx, 1)
		if err != nil {
			return err
		}
		if !fired {
			break
		}
	}

	if list.Empty() {
		fmt.Fprintln(a.out, "No tasks found.")
		return nil
	}
	printTasks(a.out, list.Items(), time.Now())
	if list.HasNextPage() {
		fmt.Fprintln(a.out, "… more available, use -pages or -all")
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlags("add", a.out)
	title := fs.String("title", "", "task title")
	desc := fs.String("desc", "", "description")
	priority := fs.String("priority", string(model.PriorityMedium), "low, medium or high")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	category := fs.Int64("category", 0, "category id")
	var subtasks stringList
	fs.Var(&subtasks, "subtask", "subtask title, repeatable")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	in := model.CreateTaskInput{
		Title:       *title,
		Description: *desc,
		Priority:    model.Priority(*priority),
	}
	if *due != "" {
		d, err := parseDue(*due)
		if err != nil {
			return err
		}
		in.DueDate = &d
	}
	if *category > 0 {
		in.CategoryID = category
	}
	for _, s := range subtasks {
		in.Subtasks = append(in.Subtasks, model.SubtaskInput{Title: s})
	}

	task, err := a.client.CreateTask(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s\n", task.ID, task.Title)
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	id, rest, err := leadingID(args)
	if err != nil {
		return err
	}

	fs := newFlags("update", a.out)
	title := fs.String("title", "", "task title")
	desc := fs.String("desc", "", "description")
	status := fs.String("status", "", "pending, in_progress or completed")
	priority := fs.String("priority", "", "low, medium or high")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	category := fs.Int64("category", 0, "category id")
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	// only flags given on the command line end up in the patch
	var patch model.UpdateTaskInput
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "desc":
			patch.Description = desc
		case "status":
			s := model.Status(*status)
			patch.Status = &s
		case "priority":
			p := model.Priority(*priority)
			patch.Priority = &p
		case "due":
			d, err := parseDue(*due)
			if err != nil {
				parseErr = err
				return
			}
			patch.DueDate = &d
		case "category":
			patch.CategoryID = category
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if patch.Empty() {
		return errUsage
	}

	task, err := a.client.UpdateTask(ctx, id, patch)
	if err != nil {
		return err
	}
	printTasks(a.out, []model.Task{task}, time.Now())
	return nil
}

func (a *app) toggle(ctx context.Context, args []string) error {
	id, _, err := leadingID(args)
	if err != nil {
		return err
	}
	if !a.client.Session().Authenticated() {
		return query.ErrNoSession
	}

	var task model.Task
	if err := a.api.Get(ctx, fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
		return err
	}
	task, err = a.client.ToggleStatus(ctx, task)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s → %s\n", task.ID, task.Title, task.Status)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, _, err := leadingID(args)
	if err != nil {
		return err
	}
	return a.client.DeleteTask(ctx, id)
}

func (a *app) stats(ctx context.Context, _ []string) error {
	s, err := a.client.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Completion: %d%% (%d of %d)\n", s.Percent, s.Completed, s.Total)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Pending\t%d\n", s.Pending)
	fmt.Fprintf(tw, "High priority\t%d\n", s.High)
	fmt.Fprintf(tw, "Overdue\t%d\n", s.Overdue)
	fmt.Fprintf(tw, "Due today\t%d\n", s.DueToday)
	tw.Flush()

	if len(s.ChartData) > 0 {
		fmt.Fprintln(a.out, "Completed this week:")
		for _, p := range s.ChartData {
			fmt.Fprintf(a.out, "  %s %s %d\n", p.Date, strings.Repeat("█", p.Count), p.Count)
		}
	}
	return nil
}

func (a *app) categories(ctx context.Context, args []string) error {
	fs := newFlags("categories", a.out)
	name := fs.String("add", "", "new category name")
	color := fs.String("color", "blue", "one of "+strings.Join(model.Palette, ", "))
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *name != "" {
		if _, err := a.client.CreateCategory(ctx, *name, *color); err != nil {
			return err
		}
	}

	list, err := a.client.Categories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Color)
	}
	return tw.Flush()
}

func printTasks(w io.Writer, tasks []model.Task, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tasks {
		box := "[ ]"
		if t.Status == model.StatusCompleted {
			box = "[x]"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(dateLayout)
			if t.IsOverdue(now) {
				due += " OVERDUE"
			}
		}
		category := ""
		if t.Category != nil {
			category = t.Category.Name
		}
		subtasks := ""
		if n := len(t.Subtasks); n > 0 {
			done := 0
			for _, s := range t.Subtasks {
				if s.IsCompleted {
					done++
				}
			}
			subtasks = fmt.Sprintf("%d/%d", done, n)
		}
		fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%s\t%s\t%s\n", box, t.ID, t.Title, t.Priority, category, due, subtasks)
	}
	tw.Flush()
}

func leadingID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, errUsage
	}
	return id, args[1:], nil
}

// parseDue reads a calendar date as local midnight.
func parseDue(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ", ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
