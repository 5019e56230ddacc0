package query

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
)

const statsKey = "task-stats"

// Stats is the server aggregate plus the completion percentage derived from it.
type Stats struct {
	model.TaskStats
	Percent int
}

func newStats(s model.TaskStats) Stats {
	return Stats{TaskStats: s, Percent: model.CompletionPercent(s.Completed, s.Total)}
}

// Stats returns the cached aggregate, fetching it when absent. Concurrent
// callers share one request.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	if err := c.requireSession(); err != nil {
		return Stats{}, err
	}

	cached, gen := c.stats.Load(statsKey)
	if cached != nil {
		return newStats(*cached), nil
	}

	v, err := c.shared(ctx, statsKey+"#"+strconv.FormatUint(gen, 10), func(ctx context.Context) (any, error) {
		var s model.TaskStats
		err := c.api.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/tasks/stats"}, &s)
		if err != nil {
			return nil, err
		}
		c.stats.Commit(statsKey, gen, func(v **model.TaskStats) { *v = &s })
		return s, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return newStats(v.(model.TaskStats)), nil
}
