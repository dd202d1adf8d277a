// Command debated serves quiz sessions over websocket together with the
// HTTP credit and purchase API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xraph/debate"
	audithook "github.com/xraph/debate/audit_hook"
	"github.com/xraph/debate/config"
	"github.com/xraph/debate/router"
	"github.com/xraph/debate/server"
	"github.com/xraph/debate/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)

	st := memory.New(memory.WithNode(cfg.SnowflakeNode))
	engine := debate.New(st,
		debate.WithLogger(logger),
		debate.WithPluginTimeout(cfg.PluginTimeout),
		debate.WithMatchCacheTTL(cfg.MatchCacheTTL),
		debate.WithSessionLifetime(cfg.SessionLifetime),
		debate.WithPrices(cfg.Prices()),
		debate.WithPlugin(audithook.New(
			audithook.SlogRecorder(logger.With("component", "audit")),
			audithook.WithLogger(logger),
		)),
	)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			logger.Warn("stop engine", "error", err)
		}
	}()

	hub := router.New(engine, router.WithLogger(logger))
	srv, err := server.New(server.Config{
		HTTPAddr:          cfg.HTTPAddr,
		AllowedOrigins:    cfg.AllowedOrigins,
		CreditSecret:      cfg.CreditSecret,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}, engine, hub, logger)
	if err != nil {
		return err
	}

	if cfg.CreditSecret == "" {
		logger.Warn("DEBATE_CREDIT_SECRET is empty; credit endpoint accepts unauthenticated calls")
	}
	return srv.ListenAndServe(ctx)
}
