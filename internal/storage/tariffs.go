package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/testprep/internal/models"
)

const tariffColumns = `id, name, description, kind, degree, tests_count, price, duration_days, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTariff(row rowScanner) (*models.Tariff, error) {
	var t models.Tariff
	var duration sql.NullInt64
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Kind, &t.Degree, &t.TestQuota,
		&t.Price, &duration, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		t.DurationDays = &d
	}
	return &t, nil
}

// CreateTariff сохраняет тариф и возвращает его с присвоенным идентификатором.
func (s *Storage) CreateTariff(ctx context.Context, t models.Tariff) (*models.Tariff, error) {
	const op = "storage.CreateTariff"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO tariffs (id, name, description, kind, degree, tests_count, price, duration_days, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
			  RETURNING ` + tariffColumns
	row := s.DB.QueryRowContext(ctx, query, uuid.NewString(), t.Name, t.Description,
		string(t.Kind), string(t.Degree), t.TestQuota, t.Price, t.DurationDays)
	created, err := scanTariff(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// FindTariffByID возвращает тариф по идентификатору, в том числе неактивный.
func (s *Storage) FindTariffByID(ctx context.Context, id string) (*models.Tariff, error) {
	const op = "storage.FindTariffByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+tariffColumns+` FROM tariffs WHERE id = $1`, id)
	t, err := scanTariff(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return t, nil
}

// FindTariffByName возвращает активный тариф по имени.
func (s *Storage) FindTariffByName(ctx context.Context, name string) (*models.Tariff, error) {
	const op = "storage.FindTariffByName"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+tariffColumns+` FROM tariffs WHERE name = $1 AND active`, name)
	t, err := scanTariff(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return t, nil
}

// ListTariffs возвращает тарифы по цене. includeInactive включает удалённые.
func (s *Storage) ListTariffs(ctx context.Context, includeInactive bool) ([]models.Tariff, error) {
	const op = "storage.ListTariffs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + tariffColumns + ` FROM tariffs`
	if !includeInactive {
		query += ` WHERE active`
	}
	query += ` ORDER BY price, name`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	tariffs := make([]models.Tariff, 0)
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		tariffs = append(tariffs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return tariffs, nil
}

// UpdateTariff применяет частичное обновление и возвращает новую версию тарифа.
func (s *Storage) UpdateTariff(ctx context.Context, id string, upd models.TariffUpdate) (*models.Tariff, error) {
	const op = "storage.UpdateTariff"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Degree != nil {
		add("degree", *upd.Degree)
	}
	if upd.TestQuota != nil {
		add("tests_count", *upd.TestQuota)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.DurationDays != nil {
		add("duration_days", *upd.DurationDays)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE tariffs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), tariffColumns)
	t, err := scanTariff(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrap(op, err)
	}
	return t, nil
}

// DeactivateTariff помечает тариф неактивным. Выданные подписки не затрагиваются.
func (s *Storage) DeactivateTariff(ctx context.Context, id string) error {
	const op = "storage.DeactivateTariff"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE tariffs SET active = false, updated_at = now() WHERE id = $1`, id)
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
