package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/config"
	"github.com/wichananm65/storefront/internal/database"
	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/logging"
	"github.com/wichananm65/storefront/internal/notify"
	"github.com/wichananm65/storefront/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.IsDev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Rabbit.URL == "" {
		log.Fatal("RABBIT_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	var n notify.Notifier = notify.NewConsole(log)
	if cfg.SMTP.Host != "" {
		n = notify.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, n)
	}
	worker := notify.NewWorker(n, user.NewPostgresRepository(db), log)

	consumer := connect(ctx, cfg, log)
	if consumer == nil {
		return
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries(ctx, "storefront-notify")
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}
	log.Info("notify started",
		zap.String("queue", cfg.Rabbit.Queue),
		zap.String("exchange", cfg.Rabbit.Exchange),
		zap.Strings("keys", notify.Keys),
	)
	if err := worker.Run(ctx, msgs); err != nil {
		log.Error("worker stopped", zap.Error(err))
	}
}

// connect retries until the broker accepts the connection or ctx ends.
func connect(ctx context.Context, cfg config.Config, log *zap.Logger) *events.Consumer {
	for {
		c, err := events.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.Rabbit.Queue, notify.Keys, cfg.Rabbit.Prefetch)
		if err == nil {
			return c
		}
		log.Warn("connect rabbitmq, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}
