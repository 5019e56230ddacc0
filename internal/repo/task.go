package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

const selectTask = `
	SELECT t.id, t.user_id, t.category_id, t.title, t.description, t.status, t.priority,
	       t.due_date, t.created_at, t.updated_at,
	       c.id, c.user_id, c.name, c.color
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.category_id`

func (r *TaskRepo) Create(ctx context.Context, userID int64, in model.CreateTaskInput) (model.Task, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO tasks (user_id, category_id, title, description, priority, due_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending')
			RETURNING id
		`, userID, in.CategoryID, in.Title, in.Description, in.Priority, in.DueDate).Scan(&id)
		if err != nil {
			return err
		}
		return writeSubtasks(ctx, tx, id, in.Subtasks)
	})
	if err != nil {
		return model.Task{}, mapError(err)
	}
	return r.Get(ctx, userID, id)
}

func (r *TaskRepo) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, selectTask+`
		WHERE t.id = $1 AND t.user_id = $2
	`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	tasks := []model.Task{t}
	if err := r.attachSubtasks(ctx, tasks); err != nil {
		return t, err
	}
	return tasks[0], nil
}

// List returns one page of the user's tasks, newest first.
func (r *TaskRepo) List(ctx context.Context, userID int64, filter model.TaskFilter, page, limit int) ([]model.Task, error) {
	status := filter.Status
	if status == model.StatusAll {
		status = ""
	}

	rows, err := r.pool.Query(ctx, selectTask+`
		WHERE t.user_id = $1
		  AND ($2::text = '' OR t.title ILIKE $2)
		  AND ($3::text = '' OR t.status = $3)
		  AND ($4::bigint = 0 OR t.category_id = $4)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $5 OFFSET $6
	`, userID, likePattern(filter.Search), status, filter.CategoryID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, r.attachSubtasks(ctx, tasks)
}

// Update applies the non-nil fields of patch. A non-nil Subtasks replaces the
// task's subtask list.
func (r *TaskRepo) Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id, userID}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.CategoryID != nil {
		set("category_id", *patch.CategoryID)
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND user_id = $2`,
			args...)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrorNotFound
		}
		if patch.Subtasks == nil {
			return nil
		}
		return replaceSubtasks(ctx, tx, id, *patch.Subtasks)
	})
	if err != nil {
		return model.Task{}, mapError(err)
	}
	return r.Get(ctx, userID, id)
}

func (r *TaskRepo) Delete(ctx context.Context, userID, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// SaveIdempotencyKey returns ErrorConflict when the key is already bound to
// another resource.
func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error {
	cmd, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO UPDATE SET resource_id = idempotency_keys.resource_id
		WHERE idempotency_keys.resource_id = EXCLUDED.resource_id
	`, userID, key, resourceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorConflict
	}
	return nil
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE user_id = $1 AND key = $2
	`, userID, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

// PurgeIdempotencyKeys удаляет ключи, созданные раньше before.
func (r *TaskRepo) PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *TaskRepo) attachSubtasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, title, is_completed
		FROM subtasks
		WHERE task_id = ANY($1)
		ORDER BY task_id, position, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s  model.Subtask
			id int64
		)
		if err := rows.Scan(&id, &s.TaskID, &s.Title, &s.IsCompleted); err != nil {
			return err
		}
		s.ID = &id
		t := &tasks[index[s.TaskID]]
		t.Subtasks = append(t.Subtasks, s)
	}
	return rows.Err()
}

func writeSubtasks(ctx context.Context, tx pgx.Tx, taskID int64, subtasks []model.SubtaskInput) error {
	if len(subtasks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, s := range subtasks {
		batch.Queue(`
			INSERT INTO subtasks (task_id, title, is_completed, position) VALUES ($1, $2, $3, $4)
		`, taskID, s.Title, s.IsCompleted, i)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// replaceSubtasks keeps listed ids, creates items without one and removes the rest.
func replaceSubtasks(ctx context.Context, tx pgx.Tx, taskID int64, subtasks []model.SubtaskInput) error {
	keep := make([]int64, 0, len(subtasks))
	for _, s := range subtasks {
		if s.ID != nil {
			keep = append(keep, *s.ID)
		}
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM subtasks WHERE task_id = $1 AND NOT (id = ANY($2))
	`, taskID, keep); err != nil {
		return err
	}
	if len(subtasks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, s := range subtasks {
		if s.ID != nil {
			batch.Queue(`
				UPDATE subtasks SET title = $3, is_completed = $4, position = $5
				WHERE id = $1 AND task_id = $2
			`, *s.ID, taskID, s.Title, s.IsCompleted, i)
			continue
		}
		batch.Queue(`
			INSERT INTO subtasks (task_id, title, is_completed, position) VALUES ($1, $2, $3, $4)
		`, taskID, s.Title, s.IsCompleted, i)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t         model.Task
		catID     *int64
		catUserID *int64
		catName   *string
		catColor  *string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		&catID, &catUserID, &catName, &catColor,
	)
	if err != nil {
		return t, err
	}
	if catID != nil {
		t.Category = &model.Category{ID: *catID, UserID: *catUserID, Name: *catName, Color: *catColor}
	}
	t.Subtasks = []model.Subtask{}
	return t, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a search string into a substring ILIKE pattern; "" matches
// everything.
func likePattern(search string) string {
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrorConflict
		case "23503": // foreign_key_violation
			return ErrorNotFound
		}
	}
	return err
}
