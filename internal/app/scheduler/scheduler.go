// Package scheduler содержит приложение фоновой деактивации истёкших подписок.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/testprep/internal/config"
	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	schedulerservice "github.com/magabrotheeeer/testprep/internal/services/scheduler"
	"github.com/magabrotheeeer/testprep/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	interval         time.Duration
	db               *storage.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for i := 0; i < 10; i++ {
		if err := db.Ping(ctx); err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		interval: cfg.ExpiryInterval,
		db:       db,
		logger:   logger,
	}

	var publisher schedulerservice.Publisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.conn = conn

		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.EventQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		app.ch = ch
		publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange)
	} else {
		logger.Warn("rabbitmq url is not set, expiry events are discarded")
	}

	app.schedulerService = schedulerservice.NewSchedulerService(db, publisher, logger)
	return app, nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("expiry scheduler started", slog.Duration("interval", a.interval))
	a.schedulerService.Run(ctx, a.interval)

	a.logger.Info("shutting down scheduler service")
	a.closeResources()
	return nil
}
