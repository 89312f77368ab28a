// Package testprep собирает HTTP-приложение платформы подготовки к тестам.
package testprep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/testprep/internal/cache"
	"github.com/magabrotheeeer/testprep/internal/config"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/health"
	customjwt "github.com/magabrotheeeer/testprep/internal/lib/jwt"
	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/migrations"
	authservice "github.com/magabrotheeeer/testprep/internal/services/auth"
	examservice "github.com/magabrotheeeer/testprep/internal/services/exam"
	gradingservice "github.com/magabrotheeeer/testprep/internal/services/grading"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
	subservice "github.com/magabrotheeeer/testprep/internal/services/subscription"
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
	"github.com/magabrotheeeer/testprep/internal/storage"
)

// App представляет HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// Publisher публикует доменные события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.New(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	publisher, err := app.openPublisher(cfg.RabbitMQ)
	if err != nil {
		app.close()
		return nil, err
	}

	jwtMaker := customjwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	subscriptions := subservice.New(db, db, logger, cfg.FreeTariffName)
	exams := examservice.New(db, cacheRedis, logger, cfg.ExamCacheTTL)
	tariffs := tariffservice.New(db, cacheRedis, logger, cfg.TariffTTL)
	promos := promoservice.New(db, db, subscriptions, logger)

	services := Services{
		Auth:          authservice.NewAuthService(db, jwtMaker, subscriptions, promos, logger),
		Grading:       gradingservice.New(subscriptions, exams, db, publisher, logger, cfg.GradingTimeout),
		Exams:         exams,
		Tariffs:       tariffs,
		Subscriptions: subscriptions,
		Promos:        promos,
		Dependencies: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.RateLimit, services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// openPublisher подключается к RabbitMQ. Без URL события отбрасываются.
func (a *App) openPublisher(cfg config.RabbitMQ) (Publisher, error) {
	if cfg.RabbitMQURL == "" {
		a.logger.Warn("rabbitmq url is not set, events are discarded")
		return rabbitmq.NopPublisher{}, nil
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.conn = conn

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.EventQueues())
	if err != nil {
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	a.ch = ch
	return rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange), nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
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
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
