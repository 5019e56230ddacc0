// Command focus is the terminal client for the Focus Flow API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/config"
	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/query"
	"github.com/BuzzLyutic/focusflow/internal/session"
)

func main() {
	cfg := config.LoadClient()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sess := session.NewStore(cfg.SessionFile, logger)
	if err := sess.Load(); err != nil {
		logger.Fatal("Failed to load session", zap.Error(err))
	}

	var opts []gateway.Option
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, gateway.WithTimeout(cfg.HTTPTimeout))
	}
	api := gateway.New(cfg.APIURL, sess, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, api: api}
	a.client = query.New(api, sess, logger, query.WithNotifier(terminalNotifier{w: os.Stderr}))

	if err := a.dispatch(ctx, os.Args[1:]); err != nil {
		logger.Debug("command failed", zap.Error(err))
		os.Exit(1)
	}
}

// newLogger пишет в stderr; без DEBUG только предупреждения и ошибки.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zc.Encoding = "console"
	return zc.Build()
}
