// Package services реализует жизненный цикл подписок: выбор действующей подписки
// (premium имеет приоритет), ленивую деактивацию исчерпанных, покупку и выдачу тарифов.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
)

var (
	// ErrTariffNotFound возвращается, если тариф для покупки не существует.
	ErrTariffNotFound = errors.New("tariff not found")
	// ErrTariffUnavailable возвращается, если тариф снят с продажи.
	ErrTariffUnavailable = errors.New("tariff unavailable")
)

// Коды причин, по которым пройти тест нельзя.
const (
	ReasonExpired        = "SUBSCRIPTION_EXPIRED"
	ReasonLimitReached   = "TEST_LIMIT_REACHED"
	ReasonNoSubscription = "NO_ACTIVE_SUBSCRIPTION"
)

// Источники выдачи подписки для метрик.
const (
	SourcePurchase     = "purchase"
	SourceRegistration = "registration"
	SourcePromo        = "promo"
	SourceReward       = "reward"
)

// Repository определяет методы хранилища подписок.
type Repository interface {
	FindActiveByUserAndKind(ctx context.Context, userID string, kind models.Kind) (*models.Subscription, error)
	Deactivate(ctx context.Context, id string) (bool, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id, tariffID string, quota *int, expiresAt *time.Time) error
	ListByUser(ctx context.Context, userID string) ([]models.Subscription, error)
	ListResults(ctx context.Context, userID string, limit, offset int) ([]models.GradingResult, error)
}

// TariffRepository определяет методы чтения тарифов.
type TariffRepository interface {
	FindTariffByID(ctx context.Context, id string) (*models.Tariff, error)
	FindTariffByName(ctx context.Context, name string) (*models.Tariff, error)
}

// CheckResult — ответ на вопрос, может ли пользователь пройти тест прямо сейчас.
type CheckResult struct {
	CanTakeTest  bool                `json:"canTakeTest"`
	Reason       string              `json:"reason,omitempty"`
	Message      string              `json:"message"`
	Subscription *models.Entitlement `json:"subscription,omitempty"`
}

// Service реализует бизнес-логику подписок.
type Service struct {
	repo       Repository
	tariffs    TariffRepository
	log        *slog.Logger
	freeTariff string
	now        func() time.Time
}

// New создаёт Service. freeTariff — имя тарифа, выдаваемого при регистрации.
func New(repo Repository, tariffs TariffRepository, log *slog.Logger, freeTariff string) *Service {
	return &Service{
		repo:       repo,
		tariffs:    tariffs,
		log:        log,
		freeTariff: freeTariff,
		now:        time.Now,
	}
}

// Resolve возвращает подписку, которая управляет доступом пользователя,
// или nil, если пригодной нет. Сначала проверяется premium, затем package.
// Найденная исчерпанная подписка деактивируется и считается отсутствующей.
func (s *Service) Resolve(ctx context.Context, userID string) (*models.Subscription, error) {
	usable, _, err := s.resolve(ctx, userID)
	return usable, err
}

func (s *Service) resolve(ctx context.Context, userID string) (usable, rejected *models.Subscription, err error) {
	now := s.now()
	for _, kind := range []models.Kind{models.KindPremium, models.KindPackage} {
		sub, err := s.findActive(ctx, userID, kind)
		if err != nil {
			return nil, nil, err
		}
		if sub == nil {
			continue
		}
		if !sub.Finished(now) {
			return sub, nil, nil
		}
		s.retire(ctx, sub)
		rejected = sub
	}
	return nil, rejected, nil
}

func (s *Service) findActive(ctx context.Context, userID string, kind models.Kind) (*models.Subscription, error) {
	const op = "services.subscription.findActive"
	sub, err := s.repo.FindActiveByUserAndKind(ctx, userID, kind)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// retire деактивирует исчерпанную подписку. Ошибка только логируется:
// подписка уже считается отсутствующей, следующий запрос повторит попытку.
func (s *Service) retire(ctx context.Context, sub *models.Subscription) {
	changed, err := s.repo.Deactivate(ctx, sub.ID)
	if err != nil {
		s.log.Warn("failed to deactivate finished subscription",
			slog.String("subscription_id", sub.ID), sl.Err(err))
		return
	}
	sub.Active = false
	if changed {
		metrics.RecordSubscriptionDeactivated(string(sub.Kind), reasonFor(sub.Kind))
		s.log.Info("subscription deactivated",
			slog.String("subscription_id", sub.ID),
			slog.String("user_id", sub.UserID),
			slog.String("kind", string(sub.Kind)))
	}
}

func reasonFor(kind models.Kind) string {
	if kind == models.KindPremium {
		return "expired"
	}
	return "limit_reached"
}

// Check сообщает, может ли пользователь пройти тест, и почему нет.
func (s *Service) Check(ctx context.Context, userID string) (CheckResult, error) {
	usable, rejected, err := s.resolve(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	if usable != nil {
		e := models.EntitlementOf(usable)
		return CheckResult{CanTakeTest: true, Message: "You can take the test", Subscription: &e}, nil
	}
	if rejected == nil {
		return CheckResult{
			Reason:  ReasonNoSubscription,
			Message: "No active subscription. Please purchase a subscription",
		}, nil
	}

	e := models.EntitlementOf(rejected)
	if rejected.Kind == models.KindPremium {
		return CheckResult{Reason: ReasonExpired, Message: "Subscription expired", Subscription: &e}, nil
	}
	return CheckResult{Reason: ReasonLimitReached, Message: "Test limit reached", Subscription: &e}, nil
}

// Buy оформляет покупку тарифа пользователем.
func (s *Service) Buy(ctx context.Context, userID, tariffID string) (*models.Subscription, error) {
	const op = "services.subscription.Buy"
	tariff, err := s.tariffs.FindTariffByID(ctx, tariffID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !tariff.Active {
		return nil, ErrTariffUnavailable
	}
	return s.grant(ctx, userID, *tariff, SourcePurchase)
}

// Grant выдаёт тариф пользователю без оплаты (промокод, награда).
func (s *Service) Grant(ctx context.Context, userID string, tariff models.Tariff, source string) (*models.Subscription, error) {
	return s.grant(ctx, userID, tariff, source)
}

// ProvisionFree выдаёт бесплатный тариф новому пользователю.
func (s *Service) ProvisionFree(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "services.subscription.ProvisionFree"
	tariff, err := s.tariffs.FindTariffByName(ctx, s.freeTariff)
	if err != nil {
		return nil, fmt.Errorf("%s: free tariff %q: %w", op, s.freeTariff, err)
	}
	return s.grant(ctx, userID, *tariff, SourceRegistration)
}

// grant продлевает действующую подписку того же типа или создаёт новую.
// Для package квота увеличивается на квоту тарифа, для premium срок
// становится максимальным из текущего и нового.
func (s *Service) grant(ctx context.Context, userID string, tariff models.Tariff, source string) (*models.Subscription, error) {
	const op = "services.subscription.grant"
	if !tariff.Kind.Valid() {
		return nil, fmt.Errorf("%s: unknown tariff kind %q", op, tariff.Kind)
	}

	var lastErr error
	for i := 0; i < 2; i++ {
		sub, err := s.grantOnce(ctx, userID, tariff)
		if err == nil {
			metrics.RecordSubscriptionGranted(string(tariff.Kind), source)
			s.log.Info("subscription granted",
				slog.String("user_id", userID),
				slog.String("tariff_id", tariff.ID),
				slog.String("subscription_id", sub.ID),
				slog.String("source", source))
			return sub, nil
		}
		if !errors.Is(err, models.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		// Параллельная выдача создала подписку того же типа, продлеваем её.
		lastErr = err
	}
	return nil, fmt.Errorf("%s: %w", op, lastErr)
}

func (s *Service) grantOnce(ctx context.Context, userID string, tariff models.Tariff) (*models.Subscription, error) {
	now := s.now()
	current, err := s.findActive(ctx, userID, tariff.Kind)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Finished(now) {
		s.retire(ctx, current)
		if current.Active {
			return nil, fmt.Errorf("cannot retire finished subscription %s", current.ID)
		}
		current = nil
	}

	quota, expiresAt := terms(tariff, now)
	if current == nil {
		return s.repo.CreateSubscription(ctx, models.Subscription{
			UserID:    userID,
			TariffID:  tariff.ID,
			Kind:      tariff.Kind,
			Quota:     quota,
			ExpiresAt: expiresAt,
		})
	}

	switch tariff.Kind {
	case models.KindPackage:
		total := *quota
		if current.Quota != nil {
			total += *current.Quota
		} else {
			total += current.Used()
		}
		quota = &total
		expiresAt = nil
	case models.KindPremium:
		quota = nil
		expiresAt = laterExpiry(current.ExpiresAt, expiresAt)
	}
	if err := s.repo.UpdateSubscription(ctx, current.ID, tariff.ID, quota, expiresAt); err != nil {
		return nil, err
	}
	current.TariffID = tariff.ID
	current.Quota = quota
	current.ExpiresAt = expiresAt
	return current, nil
}

// terms возвращает квоту и срок новой подписки по тарифу.
func terms(tariff models.Tariff, now time.Time) (*int, *time.Time) {
	if tariff.Kind == models.KindPackage {
		q := tariff.TestQuota
		return &q, nil
	}
	if tariff.DurationDays == nil {
		return nil, nil
	}
	e := now.AddDate(0, 0, *tariff.DurationDays)
	return nil, &e
}

// laterExpiry выбирает более поздний срок; nil означает бессрочно.
func laterExpiry(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if a.After(*b) {
		return a
	}
	return b
}

// My возвращает действующие подписки пользователя.
func (s *Service) My(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "services.subscription.My"
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	active := make([]models.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Active && !sub.Finished(now) {
			active = append(active, sub)
		}
	}
	return active, nil
}

// History возвращает все подписки пользователя и историю его результатов.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, []models.GradingResult, error) {
	const op = "services.subscription.History"
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	results, err := s.repo.ListResults(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, results, nil
}
