// Package services реализует периодическую деактивацию истёкших premium-подписок.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
)

// SubscriptionRepository определяет метод массовой деактивации.
type SubscriptionRepository interface {
	DeactivateExpired(ctx context.Context, now time.Time) ([]models.Subscription, error)
}

// Publisher публикует события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// SchedulerService периодически переводит истёкшие подписки в неактивные.
type SchedulerService struct {
	repo      SubscriptionRepository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, publisher Publisher, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Run выполняет проход сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.DeactivateExpired(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry scheduler stopped")
			return
		case <-ticker.C:
			s.DeactivateExpired(ctx)
		}
	}
}

// DeactivateExpired деактивирует истёкшие подписки и публикует события о них.
// Возвращает количество деактивированных подписок.
func (s *SchedulerService) DeactivateExpired(ctx context.Context) int {
	s.log.Info("starting deactivation of expired subscriptions")
	now := s.now()
	expired, err := s.repo.DeactivateExpired(ctx, now)
	if err != nil {
		s.log.Error("failed to deactivate expired subscriptions", sl.Err(err))
		return 0
	}
	if len(expired) == 0 {
		s.log.Info("no expired subscriptions found")
		return 0
	}
	s.log.Info("deactivated expired subscriptions", "count", len(expired))

	for _, sub := range expired {
		metrics.RecordSubscriptionDeactivated(string(sub.Kind), "expired")
		event := models.SubscriptionEvent{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Kind:           sub.Kind,
			Reason:         "expired",
			OccurredAt:     now,
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionExpired, event); err != nil {
			s.log.Error("failed to publish message", slog.String("subscription_id", sub.ID), sl.Err(err))
		}
	}
	return len(expired)
}
