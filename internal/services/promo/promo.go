// Package services реализует промокоды инфлюенсеров: новый пользователь получает
// тариф промокода, владелец после каждых N активаций получает тариф-награду.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
	subservice "github.com/magabrotheeeer/testprep/internal/services/subscription"
)

const (
	defaultRequiredReferrals = 3
	defaultUsageLimit        = 1000
)

var (
	// ErrPromoInvalid возвращается для несуществующего, истёкшего или исчерпанного промокода.
	ErrPromoInvalid = errors.New("promo code is invalid")
	// ErrInvalidReward возвращается, если тариф-награда не является package.
	ErrInvalidReward = errors.New("reward tariff must be a package tariff")
	// ErrTariffNotFound возвращается, если тариф промокода не найден.
	ErrTariffNotFound = errors.New("tariff not found")
	// ErrExpired возвращается при создании промокода с прошедшей датой окончания.
	ErrExpired = errors.New("expire date is in the past")
)

// Repository определяет методы хранилища промокодов.
type Repository interface {
	CreatePromo(ctx context.Context, p models.Promo) (*models.Promo, error)
	ListPromos(ctx context.Context) ([]models.Promo, error)
	FindPromoByCode(ctx context.Context, code string) (*models.Promo, error)
	ConsumePromo(ctx context.Context, code string, now time.Time) (*models.Promo, error)
}

// TariffRepository определяет методы чтения тарифов.
type TariffRepository interface {
	FindTariffByID(ctx context.Context, id string) (*models.Tariff, error)
}

// Granter выдаёт подписку по тарифу.
type Granter interface {
	Grant(ctx context.Context, userID string, tariff models.Tariff, source string) (*models.Subscription, error)
}

// Service реализует бизнес-логику промокодов.
type Service struct {
	repo    Repository
	tariffs TariffRepository
	granter Granter
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт Service.
func New(repo Repository, tariffs TariffRepository, granter Granter, log *slog.Logger) *Service {
	return &Service{repo: repo, tariffs: tariffs, granter: granter, log: log, now: time.Now}
}

// Create создаёт промокод.
func (s *Service) Create(ctx context.Context, in models.DummyPromo) (*models.Promo, error) {
	const op = "services.promo.Create"
	if !in.ExpireDate.After(s.now()) {
		return nil, ErrExpired
	}
	if _, err := s.tariff(ctx, in.TariffID); err != nil {
		return nil, err
	}
	reward, err := s.tariff(ctx, in.RewardTariffID)
	if err != nil {
		return nil, err
	}
	if reward.Kind != models.KindPackage {
		return nil, ErrInvalidReward
	}

	p := models.Promo{
		Code:              strings.TrimSpace(in.Code),
		TariffID:          in.TariffID,
		OwnerID:           in.OwnerID,
		RewardTariffID:    in.RewardTariffID,
		RequiredReferrals: in.RequiredReferrals,
		UsageLimit:        in.UsageLimit,
		ExpireDate:        in.ExpireDate,
	}
	if p.RequiredReferrals == 0 {
		p.RequiredReferrals = defaultRequiredReferrals
	}
	if p.UsageLimit == 0 {
		p.UsageLimit = defaultUsageLimit
	}
	created, err := s.repo.CreatePromo(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// List возвращает все промокоды.
func (s *Service) List(ctx context.Context) ([]models.Promo, error) {
	const op = "services.promo.List"
	promos, err := s.repo.ListPromos(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return promos, nil
}

// Check проверяет, что промокод можно активировать, не расходуя его.
func (s *Service) Check(ctx context.Context, code string) error {
	const op = "services.promo.Check"
	p, err := s.repo.FindPromoByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return ErrPromoInvalid
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !p.Available(s.now()) {
		return ErrPromoInvalid
	}
	return nil
}

// Redeem активирует промокод для нового пользователя и выдаёт ему тариф промокода.
// Если активация завершила очередную серию, владелец получает тариф-награду;
// ошибка выдачи награды только логируется.
func (s *Service) Redeem(ctx context.Context, code, userID string) (*models.Subscription, error) {
	const op = "services.promo.Redeem"
	p, err := s.repo.ConsumePromo(ctx, code, s.now())
	if errors.Is(err, models.ErrPromoUnavailable) {
		metrics.RecordPromoRedemption("invalid")
		return nil, ErrPromoInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tariff, err := s.tariff(ctx, p.TariffID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := s.granter.Grant(ctx, userID, *tariff, subservice.SourcePromo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordPromoRedemption("redeemed")
	s.log.Info("promo redeemed",
		slog.String("code", p.Code),
		slog.String("user_id", userID),
		slog.Int("used_count", p.UsedCount))

	if p.RewardDue() {
		s.reward(ctx, p)
	}
	return sub, nil
}

func (s *Service) reward(ctx context.Context, p *models.Promo) {
	log := s.log.With(slog.String("code", p.Code), slog.String("owner_id", p.OwnerID))
	tariff, err := s.tariff(ctx, p.RewardTariffID)
	if err != nil {
		log.Error("failed to load reward tariff", sl.Err(err))
		return
	}
	if _, err := s.granter.Grant(ctx, p.OwnerID, *tariff, subservice.SourceReward); err != nil {
		log.Error("failed to grant promo reward", sl.Err(err))
		return
	}
	metrics.RecordPromoRedemption("rewarded")
	log.Info("promo owner rewarded", slog.Int("used_count", p.UsedCount))
}

func (s *Service) tariff(ctx context.Context, id string) (*models.Tariff, error) {
	const op = "services.promo.tariff"
	t, err := s.tariffs.FindTariffByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
