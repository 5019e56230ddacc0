package worker

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type KeyPurger interface {
	PurgeIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically drops idempotency keys older than ttl.
type Sweeper struct {
	keys     KeyPurger
	logger   *zap.Logger
	ttl      time.Duration
	schedule cron.Schedule
	now      func() time.Time

	cron     *cron.Cron
	stopOnce sync.Once
}

func NewSweeper(keys KeyPurger, logger *zap.Logger, interval, ttl time.Duration) *Sweeper {
	return &Sweeper{
		keys:     keys,
		logger:   logger,
		ttl:      ttl,
		schedule: cron.Every(interval),
		now:      time.Now,
		// проход, не успевший завершиться, не запускается повторно
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting idempotency key sweeper", zap.Duration("ttl", s.ttl))

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	}))
	s.cron.Start()
}

// Stop ждет завершения текущего прохода. Повторный вызов безопасен.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping sweeper...")
		<-s.cron.Stop().Done()
	})
}

func (s *Sweeper) sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	n, err := s.keys.PurgeIdempotencyKeys(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged idempotency keys", zap.Int64("count", n), zap.Time("before", cutoff))
	}
	return n, nil
}
