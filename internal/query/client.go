// Package query keeps client-side copies of server-held tasks, stats and
// categories. Reads are cached per partition; every successful write
// invalidates the caches it can affect instead of patching them.
package query

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
	"github.com/BuzzLyutic/focusflow/internal/querycache"
)

var ErrNoSession = errors.New("not signed in")

// Transport sends one API request. *gateway.Client implements it.
type Transport interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// Session is the identity holder queries consult before touching the network.
type Session interface {
	Authenticated() bool
	User() (model.User, bool)
	SetAuth(user model.User, token string) error
	Logout() error
}

type Client struct {
	api      Transport
	session  Session
	notifier Notifier
	logger   *zap.Logger

	tasks      *querycache.Store[pageState]
	stats      *querycache.Store[*model.TaskStats]
	categories *querycache.Store[[]model.Category]
	flight     singleflight.Group
}

type Option func(*Client)

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func New(api Transport, session Session, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		api:        api,
		session:    session,
		logger:     logger,
		tasks:      querycache.New[pageState](),
		stats:      querycache.New[*model.TaskStats](),
		categories: querycache.New[[]model.Category](),
	}
	c.notifier = NewLogNotifier(logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() Session { return c.session }

func (c *Client) requireSession() error {
	if !c.session.Authenticated() {
		return ErrNoSession
	}
	return nil
}

// shared runs fetch once for every concurrent caller of key. The request is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx ends.
func (c *Client) shared(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	ch := c.flight.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// invalidateTaskViews drops every task page and the stats entry.
func (c *Client) invalidateTaskViews() {
	c.tasks.InvalidateAll()
	c.stats.InvalidateAll()
}
