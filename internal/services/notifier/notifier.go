// Package services обрабатывает события брокера и готовит уведомления пользователям.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/testprep/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
	gradingservice "github.com/magabrotheeeer/testprep/internal/services/grading"
)

// Статусы обработки события для метрик.
const (
	StatusDelivered = "delivered"
	StatusSkipped   = "skipped"
	StatusInvalid   = "invalid"
	StatusFailed    = "failed"
)

// UserRepository загружает получателя уведомления.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// NotifierService превращает события в уведомления.
type NotifierService struct {
	users UserRepository
	log   *slog.Logger
}

// NewNotifierService создаёт NotifierService.
func NewNotifierService(users UserRepository, log *slog.Logger) *NotifierService {
	return &NotifierService{users: users, log: log}
}

// HandleGradingCompleted уведомляет пользователя о результате проверки.
func (s *NotifierService) HandleGradingCompleted(ctx context.Context, body []byte) error {
	var event gradingservice.CompletedEvent
	if err := json.Unmarshal(body, &event); err != nil || event.UserID == "" {
		return s.reject(rabbitmq.RoutingGradingCompleted, body, err)
	}

	user, err := s.recipient(ctx, rabbitmq.RoutingGradingCompleted, event.UserID)
	if user == nil {
		return err
	}

	attrs := []any{
		slog.String("email", user.Email),
		slog.String("exam_id", event.ExamID),
		slog.Float64("score", event.Score),
		slog.Int("correct", event.CorrectCount),
		slog.Int("total", event.Total),
	}
	if event.Entitlement.Remaining != nil {
		attrs = append(attrs, slog.Int("remaining", *event.Entitlement.Remaining))
	}
	s.log.Info("test result notification", attrs...)
	metrics.RecordEventConsumed(rabbitmq.RoutingGradingCompleted, StatusDelivered)
	return nil
}

// HandleSubscriptionExpired уведомляет пользователя об окончании подписки.
func (s *NotifierService) HandleSubscriptionExpired(ctx context.Context, body []byte) error {
	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil || event.UserID == "" {
		return s.reject(rabbitmq.RoutingSubscriptionExpired, body, err)
	}

	user, err := s.recipient(ctx, rabbitmq.RoutingSubscriptionExpired, event.UserID)
	if user == nil {
		return err
	}

	s.log.Info("subscription expired notification",
		slog.String("email", user.Email),
		slog.String("subscription_id", event.SubscriptionID),
		slog.String("kind", string(event.Kind)),
		slog.String("reason", event.Reason))
	metrics.RecordEventConsumed(rabbitmq.RoutingSubscriptionExpired, StatusDelivered)
	return nil
}

// reject отбрасывает нечитаемое событие: повторная доставка его не исправит.
func (s *NotifierService) reject(routingKey string, body []byte, err error) error {
	if err == nil {
		err = errors.New("user_id is empty")
	}
	s.log.Warn("dropping malformed event",
		slog.String("routing_key", routingKey),
		slog.Int("size", len(body)),
		sl.Err(err))
	metrics.RecordEventConsumed(routingKey, StatusInvalid)
	return nil
}

// recipient возвращает nil пользователя, если уведомление отправлять не нужно.
// Ошибка хранилища возвращается, чтобы сообщение вернулось в очередь.
func (s *NotifierService) recipient(ctx context.Context, routingKey, userID string) (*models.User, error) {
	const op = "services.notifier.recipient"
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		s.log.Warn("recipient not found", slog.String("user_id", userID))
		metrics.RecordEventConsumed(routingKey, StatusSkipped)
		return nil, nil
	}
	if err != nil {
		metrics.RecordEventConsumed(routingKey, StatusFailed)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.Active {
		metrics.RecordEventConsumed(routingKey, StatusSkipped)
		return nil, nil
	}
	return user, nil
}
