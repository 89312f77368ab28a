package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/testprep/internal/models"
)

const subscriptionColumns = `id, user_id, tariff_id, kind, quota, active, expires_at, created_at`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var quota sql.NullInt64
	var expires sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.TariffID, &sub.Kind, &quota,
		&sub.Active, &expires, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if quota.Valid {
		q := int(quota.Int64)
		sub.Quota = &q
	}
	if expires.Valid {
		e := expires.Time
		sub.ExpiresAt = &e
	}
	sub.Usage = make([]models.Usage, 0)
	return &sub, nil
}

func loadUsages(ctx context.Context, q querier, subscriptionID string) ([]models.Usage, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT exam_id, score, used_at FROM subscription_usages WHERE subscription_id = $1 ORDER BY id`,
		subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usages := make([]models.Usage, 0)
	for rows.Next() {
		var u models.Usage
		if err := rows.Scan(&u.ExamID, &u.Score, &u.UsedAt); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// FindActiveByUserAndKind возвращает активную подписку пользователя данного типа
// вместе с журналом использований.
func (s *Storage) FindActiveByUserAndKind(ctx context.Context, userID string, kind models.Kind) (*models.Subscription, error) {
	const op = "storage.FindActiveByUserAndKind"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
			  WHERE user_id = $1 AND kind = $2 AND active
			  ORDER BY created_at DESC LIMIT 1`, userID, string(kind))
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	if sub.Usage, err = loadUsages(ctx, s.DB, sub.ID); err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// CreateSubscription сохраняет новую активную подписку.
// Вторая активная подписка того же типа у пользователя даёт ErrAlreadyExists.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `INSERT INTO subscriptions (id, user_id, tariff_id, kind, quota, active, expires_at)
			  VALUES ($1, $2, $3, $4, $5, true, $6)
			  RETURNING `+subscriptionColumns,
		uuid.NewString(), sub.UserID, sub.TariffID, string(sub.Kind), sub.Quota, sub.ExpiresAt)
	created, err := scanSubscription(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// UpdateSubscription продлевает подписку: меняет тариф, квоту и срок действия.
func (s *Storage) UpdateSubscription(ctx context.Context, id, tariffID string, quota *int, expiresAt *time.Time) error {
	const op = "storage.UpdateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET tariff_id = $1, quota = $2, expires_at = $3
			  WHERE id = $4 AND active`, tariffID, quota, expiresAt, id)
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// Deactivate переводит подписку в неактивное состояние. Повторный вызов
// ничего не меняет и возвращает false.
func (s *Storage) Deactivate(ctx context.Context, id string) (bool, error) {
	const op = "storage.Deactivate"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET active = false WHERE id = $1 AND active`, id)
	if err != nil {
		return false, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(op, err)
	}
	return n > 0, nil
}

// ListByUser возвращает все подписки пользователя, новые первыми, с журналами использований.
func (s *Storage) ListByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	const op = "storage.ListByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return []models.Subscription{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions
			  WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	index := make(map[string]int)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		index[sub.ID] = len(subs)
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	if len(subs) == 0 {
		return subs, nil
	}

	usageRows, err := s.DB.QueryContext(ctx, `SELECT u.subscription_id, u.exam_id, u.score, u.used_at
			  FROM subscription_usages u JOIN subscriptions s ON s.id = u.subscription_id
			  WHERE s.user_id = $1 ORDER BY u.id`, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer usageRows.Close()

	for usageRows.Next() {
		var subID string
		var u models.Usage
		if err := usageRows.Scan(&subID, &u.ExamID, &u.Score, &u.UsedAt); err != nil {
			return nil, wrap(op, err)
		}
		if i, ok := index[subID]; ok {
			subs[i].Usage = append(subs[i].Usage, u)
		}
	}
	if err := usageRows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return subs, nil
}

// RecordAttempt в одной транзакции блокирует строку подписки, повторно проверяет,
// что подписка активна и не исчерпана, добавляет запись использования и результат
// в историю пользователя. Если проверка под блокировкой не прошла, возвращается
// ErrSubscriptionFinished и ничего не записывается.
func (s *Storage) RecordAttempt(ctx context.Context, attempt models.Attempt, now time.Time) (*models.Subscription, error) {
	const op = "storage.RecordAttempt"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rollback(tx)

	row := tx.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`,
		attempt.SubscriptionID)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	if sub.Usage, err = loadUsages(ctx, tx, sub.ID); err != nil {
		return nil, wrap(op, err)
	}
	if !sub.Active || sub.Finished(now) {
		return sub, fmt.Errorf("%s: %w", op, models.ErrSubscriptionFinished)
	}

	usage := attempt.Usage
	if usage.UsedAt.IsZero() {
		usage.UsedAt = now
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO subscription_usages (subscription_id, exam_id, score, used_at)
			  VALUES ($1, $2, $3, $4)`, sub.ID, usage.ExamID, usage.Score, usage.UsedAt); err != nil {
		return nil, wrap(op, err)
	}
	sub.Usage = append(sub.Usage, usage)

	result := attempt.Result
	result.Entitlement = models.EntitlementOf(sub)
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_results (user_id, exam_id, subscription_id, result, created_at)
			  VALUES ($1, $2, $3, $4, $5)`, attempt.UserID, usage.ExamID, sub.ID, payload, usage.UsedAt); err != nil {
		return nil, wrap(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return sub, nil
}

// DeactivateExpired деактивирует premium-подписки с истёкшим сроком
// и возвращает их.
func (s *Storage) DeactivateExpired(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	const op = "storage.DeactivateExpired"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `UPDATE subscriptions SET active = false
			  WHERE active AND kind = 'premium' AND expires_at IS NOT NULL AND expires_at < $1
			  RETURNING `+subscriptionColumns, now)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	expired := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		expired = append(expired, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return expired, nil
}

// ListResults возвращает историю результатов пользователя, новые первыми.
func (s *Storage) ListResults(ctx context.Context, userID string, limit, offset int) ([]models.GradingResult, error) {
	const op = "storage.ListResults"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	results := make([]models.GradingResult, 0)
	if !validID(userID) {
		return results, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT result FROM user_results
			  WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, wrap(op, err)
		}
		var r models.GradingResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return results, nil
}
