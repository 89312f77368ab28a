// Package services реализует управление тарифами. Список активных тарифов
// кэшируется в Redis и сбрасывается при любом изменении.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/testprep/internal/lib/sl"
	"github.com/magabrotheeeer/testprep/internal/models"
)

const activeListKey = "tariffs:active"

var (
	// ErrTariffNotFound возвращается, если тариф не существует.
	ErrTariffNotFound = errors.New("tariff not found")
	// ErrInvalidTariff возвращается при несогласованных полях тарифа.
	ErrInvalidTariff = errors.New("invalid tariff")
)

// Repository определяет методы хранилища тарифов.
type Repository interface {
	CreateTariff(ctx context.Context, t models.Tariff) (*models.Tariff, error)
	FindTariffByID(ctx context.Context, id string) (*models.Tariff, error)
	ListTariffs(ctx context.Context, includeInactive bool) ([]models.Tariff, error)
	UpdateTariff(ctx context.Context, id string, upd models.TariffUpdate) (*models.Tariff, error)
	DeactivateTariff(ctx context.Context, id string) error
}

// Cache определяет методы кэша.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует бизнес-логику тарифов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	ttl   time.Duration
}

// New создаёт Service.
func New(repo Repository, cache Cache, log *slog.Logger, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, log: log, ttl: ttl}
}

// List возвращает тарифы. Активные тарифы читаются из кэша.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]models.Tariff, error) {
	const op = "services.tariff.List"
	if includeInactive {
		res, err := s.repo.ListTariffs(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return res, nil
	}

	var cached []models.Tariff
	found, err := s.cache.Get(ctx, activeListKey, &cached)
	if err != nil {
		s.log.Warn("failed to read tariffs from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	res, err := s.repo.ListTariffs(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, activeListKey, res, s.ttl); err != nil {
		s.log.Warn("failed to cache tariffs", sl.Err(err))
	}
	return res, nil
}

// Get возвращает тариф по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*models.Tariff, error) {
	const op = "services.tariff.Get"
	t, err := s.repo.FindTariffByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Create создаёт тариф. Для package нужна положительная квота,
// у premium квоты нет.
func (s *Service) Create(ctx context.Context, in models.DummyTariff) (*models.Tariff, error) {
	const op = "services.tariff.Create"
	t := models.Tariff{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Kind:         models.Kind(in.Kind),
		Degree:       models.Degree(in.Degree),
		TestQuota:    in.TestQuota,
		Price:        in.Price,
		DurationDays: in.DurationDays,
		Active:       true,
	}
	if t.Degree == "" {
		t.Degree = models.DegreeLimited
	}
	if err := validate(t); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateTariff(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return created, nil
}

func validate(t models.Tariff) error {
	switch t.Kind {
	case models.KindPackage:
		if t.TestQuota <= 0 {
			return fmt.Errorf("%w: package tariff needs a positive tests_count", ErrInvalidTariff)
		}
		if t.DurationDays != nil {
			return fmt.Errorf("%w: package tariff has no duration", ErrInvalidTariff)
		}
	case models.KindPremium:
		if t.TestQuota != 0 {
			return fmt.Errorf("%w: premium tariff has no tests_count", ErrInvalidTariff)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTariff, t.Kind)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTariff)
	}
	return nil
}

// Update частично обновляет тариф. Kind изменить нельзя.
func (s *Service) Update(ctx context.Context, id string, upd models.TariffUpdate) (*models.Tariff, error) {
	const op = "services.tariff.Update"
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *current
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		upd.Name = &trimmed
		merged.Name = trimmed
	}
	if upd.TestQuota != nil {
		merged.TestQuota = *upd.TestQuota
	}
	if upd.DurationDays != nil {
		merged.DurationDays = upd.DurationDays
	}
	if err := validate(merged); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateTariff(ctx, id, upd)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrTariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete снимает тариф с продажи. Выданные подписки продолжают действовать.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "services.tariff.Delete"
	err := s.repo.DeactivateTariff(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return ErrTariffNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, activeListKey); err != nil {
		s.log.Warn("failed to invalidate tariff cache", sl.Err(err))
	}
}
