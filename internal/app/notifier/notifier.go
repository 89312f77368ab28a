// Package notifier содержит приложение, которое потребляет события из RabbitMQ
// и рассылает уведомления пользователям.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/testprep/internal/config"
	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	notifierservice "github.com/magabrotheeeer/testprep/internal/services/notifier"
	"github.com/magabrotheeeer/testprep/internal/storage"
)

type App struct {
	db              *storage.Storage
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.NotifierService
	workers         int
	logger          *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq url is required for notifier")
	}
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.EventQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	return &App{
		db:              db,
		conn:            conn,
		ch:              ch,
		notifierService: notifierservice.NewNotifierService(db, logger),
		workers:         cfg.ConsumerWorkers,
		logger:          logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	handlers := map[string]rabbitmq.Handler{
		rabbitmq.RoutingGradingCompleted:    a.notifierService.HandleGradingCompleted,
		rabbitmq.RoutingSubscriptionExpired: a.notifierService.HandleSubscriptionExpired,
	}
	for _, q := range rabbitmq.EventQueues() {
		if err := rabbitmq.ConsumeMessages(ctx, a.logger, a.ch, q.QueueName, a.workers, handlers[q.RoutingKey]); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
