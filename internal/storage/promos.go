package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/testprep/internal/models"
)

const promoColumns = `id, code, tariff_id, owner_id, reward_tariff_id, required_referrals, used_count, usage_limit, expire_date, active, created_at`

func scanPromo(row rowScanner) (*models.Promo, error) {
	var p models.Promo
	if err := row.Scan(&p.ID, &p.Code, &p.TariffID, &p.OwnerID, &p.RewardTariffID, &p.RequiredReferrals,
		&p.UsedCount, &p.UsageLimit, &p.ExpireDate, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// NormalizeCode приводит промокод к каноническому виду.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreatePromo сохраняет промокод. Занятый код даёт ErrAlreadyExists.
func (s *Storage) CreatePromo(ctx context.Context, p models.Promo) (*models.Promo, error) {
	const op = "storage.CreatePromo"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `INSERT INTO promos (id, code, tariff_id, owner_id, reward_tariff_id,
			      required_referrals, usage_limit, expire_date, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
			  RETURNING `+promoColumns,
		uuid.NewString(), NormalizeCode(p.Code), p.TariffID, p.OwnerID, p.RewardTariffID,
		p.RequiredReferrals, p.UsageLimit, p.ExpireDate)
	created, err := scanPromo(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// ListPromos возвращает все промокоды, новые первыми.
func (s *Storage) ListPromos(ctx context.Context) ([]models.Promo, error) {
	const op = "storage.ListPromos"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+promoColumns+` FROM promos ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	promos := make([]models.Promo, 0)
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		promos = append(promos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return promos, nil
}

// FindPromoByCode ищет промокод без учёта регистра и пробелов.
func (s *Storage) FindPromoByCode(ctx context.Context, code string) (*models.Promo, error) {
	const op = "storage.FindPromoByCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPromo(s.DB.QueryRowContext(ctx, `SELECT `+promoColumns+` FROM promos WHERE code = $1`, NormalizeCode(code)))
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// ConsumePromo атомарно увеличивает счётчик активаций, если промокод активен,
// не истёк и не исчерпан. Иначе возвращает ErrPromoUnavailable.
func (s *Storage) ConsumePromo(ctx context.Context, code string, now time.Time) (*models.Promo, error) {
	const op = "storage.ConsumePromo"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `UPDATE promos SET used_count = used_count + 1
			  WHERE code = $1 AND active AND expire_date > $2 AND used_count < usage_limit
			  RETURNING `+promoColumns, NormalizeCode(code), now)
	p, err := scanPromo(row)
	if err != nil {
		err = wrap(op, err)
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPromoUnavailable)
		}
		return nil, err
	}
	return p, nil
}
