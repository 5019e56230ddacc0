package query

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
)

const categoriesKey = "categories"

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}

	cached, gen := c.categories.Load(categoriesKey)
	if cached != nil {
		return cached, nil
	}

	v, err := c.shared(ctx, categoriesKey+"#"+strconv.FormatUint(gen, 10), func(ctx context.Context) (any, error) {
		list := []model.Category{}
		err := c.api.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/categories"}, &list)
		if err != nil {
			return nil, err
		}
		c.categories.Commit(categoriesKey, gen, func(v *[]model.Category) { *v = list })
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Category), nil
}

func (c *Client) CreateCategory(ctx context.Context, name, color string) (model.Category, error) {
	var cat model.Category
	if err := c.requireSession(); err != nil {
		return cat, err
	}

	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/categories",
		Body:   model.CreateCategoryInput{Name: name, Color: color},
	}, &cat)
	if err != nil {
		return cat, c.mutationFailed("create category", "Failed to create category", err)
	}

	c.categories.InvalidateAll()
	c.notify(LevelSuccess, "Category created successfully")
	return cat, nil
}
