package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/testprep/internal/models"
)

func TestCreateTariff(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	days := 30

	mock.ExpectQuery(q("INSERT INTO tariffs")).
		WithArgs(sqlmock.AnyArg(), "Premium month", "", "premium", "limited", 0, 1500, days).
		WillReturnRows(sqlmock.NewRows(tariffCols).
			AddRow(tariffID, "Premium month", "", "premium", "limited", 0, 1500, int64(days), true, now, now))

	created, err := s.CreateTariff(context.Background(), models.Tariff{
		Name: "Premium month", Kind: models.KindPremium, Degree: models.DegreeLimited, Price: 1500, DurationDays: &days,
	})
	require.NoError(t, err)
	assert.Equal(t, tariffID, created.ID)
	assert.Equal(t, models.KindPremium, created.Kind)
	require.NotNil(t, created.DurationDays)
	assert.Equal(t, 30, *created.DurationDays)
	assert.True(t, created.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTariffByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := setupMock(t)
		now := time.Now()
		mock.ExpectQuery(q("FROM tariffs WHERE id = $1")).
			WithArgs(tariffID).
			WillReturnRows(sqlmock.NewRows(tariffCols).
				AddRow(tariffID, "Pack 10", "ten tests", "package", "limited", 10, 900, nil, true, now, now))

		tariff, err := s.FindTariffByID(context.Background(), tariffID)
		require.NoError(t, err)
		assert.Equal(t, 10, tariff.TestQuota)
		assert.Nil(t, tariff.DurationDays)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectQuery(q("FROM tariffs WHERE id = $1")).WithArgs(tariffID).WillReturnError(sql.ErrNoRows)

		_, err := s.FindTariffByID(context.Background(), tariffID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		s, mock := setupMock(t)
		_, err := s.FindTariffByID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTariffs(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	mock.ExpectQuery(q("FROM tariffs WHERE active ORDER BY price, name")).
		WillReturnRows(sqlmock.NewRows(tariffCols).
			AddRow(tariffID, "free", "", "package", "free", 5, 0, nil, true, now, now).
			AddRow("8c9e6679-7425-40de-944b-e07fc1f90ae8", "Premium", "", "premium", "limited", 0, 1500, int64(30), true, now, now))

	tariffs, err := s.ListTariffs(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tariffs, 2)
	assert.Equal(t, "free", tariffs[0].Name)
	assert.Equal(t, models.KindPremium, tariffs[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTariff(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	price := 1200
	name := "Pack 12"

	mock.ExpectQuery(q("UPDATE tariffs SET name = $1, price = $2, updated_at = now() WHERE id = $3")).
		WithArgs(name, price, tariffID).
		WillReturnRows(sqlmock.NewRows(tariffCols).
			AddRow(tariffID, name, "", "package", "limited", 12, price, nil, true, now, now))

	updated, err := s.UpdateTariff(context.Background(), tariffID, models.TariffUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, price, updated.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateTariff(t *testing.T) {
	t.Run("soft delete", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectExec(q("UPDATE tariffs SET active = false")).
			WithArgs(tariffID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.DeactivateTariff(context.Background(), tariffID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectExec(q("UPDATE tariffs SET active = false")).
			WithArgs(tariffID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.DeactivateTariff(context.Background(), tariffID), models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
