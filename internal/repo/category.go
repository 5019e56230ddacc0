package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (r *CategoryRepo) List(ctx context.Context, userID int64) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, color FROM categories WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[model.Category])
}

func (r *CategoryRepo) Get(ctx context.Context, userID, id int64) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, color FROM categories WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrorNotFound
	}
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (model.Category, error) {
	c := model.Category{UserID: userID, Name: in.Name, Color: in.Color}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, color) VALUES ($1, $2, $3) RETURNING id
	`, userID, in.Name, in.Color).Scan(&c.ID)
	return c, mapError(err)
}

func (r *CategoryRepo) Seed(ctx context.Context, userID int64, in []model.CreateCategoryInput) ([]model.Category, error) {
	out := make([]model.Category, 0, len(in))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, item := range in {
			c := model.Category{UserID: userID, Name: item.Name, Color: item.Color}
			if err := tx.QueryRow(ctx, `
				INSERT INTO categories (user_id, name, color) VALUES ($1, $2, $3) RETURNING id
			`, userID, item.Name, item.Color).Scan(&c.ID); err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
